package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/catalog"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

const (
	defaultBaseURL     = "https://api.guildwars2.com/v2"
	defaultTimeout     = 30 * time.Second
	defaultBatchSize   = 200
	defaultConcurrency = 4
)

// errNotFound marks a 404, which the GW2 API returns when every requested id is unknown
var errNotFound = errors.New("not found")

// MetricsRecorder receives per-request measurements
type MetricsRecorder interface {
	RecordAPIRequest(method, endpoint string, statusCode int, duration float64)
	RecordRateLimitWait(method, endpoint string, duration float64)
}

// ClientConfig configures the GW2 client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BatchSize         int
	Concurrency       int
	Language          string
}

// GW2Client reads the catalog from the public Guild Wars 2 API.
// Requests are rate limited and batched; failures are not retried.
type GW2Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *CircuitBreaker
	metrics     MetricsRecorder
	baseURL     string
	batchSize   int
	concurrency int
	language    string
}

// NewGW2Client creates a client. Zero config fields take defaults.
func NewGW2Client(cfg ClientConfig) *GW2Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > defaultBatchSize {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	return &GW2Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:     NewCircuitBreaker(5, 30*time.Second, nil),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		language:    cfg.Language,
	}
}

// SetMetrics attaches request metrics
func (c *GW2Client) SetMetrics(metrics MetricsRecorder) {
	c.metrics = metrics
}

// FindItems fetches item metadata for ids
func (c *GW2Client) FindItems(ctx context.Context, ids []int) (map[int]*crafting.Item, error) {
	result := make(map[int]*crafting.Item, len(ids))
	var mu sync.Mutex
	err := c.fetchBatches(ctx, "/items", ids, func(value gjson.Result) {
		item := &crafting.Item{
			ID:     int(value.Get("id").Int()),
			Name:   value.Get("name").String(),
			Icon:   value.Get("icon").String(),
			Rarity: value.Get("rarity").String(),
			Kind:   crafting.KindItem,
		}
		mu.Lock()
		result[item.ID] = item
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return result, nil
}

// FindPrices fetches trading post prices for ids. Untradable ids are absent.
func (c *GW2Client) FindPrices(ctx context.Context, ids []int) (map[int]*crafting.MarketPrice, error) {
	result := make(map[int]*crafting.MarketPrice, len(ids))
	var mu sync.Mutex
	err := c.fetchBatches(ctx, "/commerce/prices", ids, func(value gjson.Result) {
		price := catalog.ParsePrice(value)
		mu.Lock()
		result[price.ID] = price
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	return result, nil
}

// FindAllRecipes lists every recipe id and fetches them in batches
func (c *GW2Client) FindAllRecipes(ctx context.Context) ([]*crafting.Recipe, error) {
	body, err := c.get(ctx, "/recipes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	ids := make([]int, 0)
	gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
		ids = append(ids, int(value.Int()))
		return true
	})
	return c.findRecipes(ctx, ids)
}

// FindByOutputID searches the recipes producing an item and returns the lowest-id one
func (c *GW2Client) FindByOutputID(ctx context.Context, outputItemID int) (*crafting.Recipe, error) {
	body, err := c.get(ctx, "/recipes/search", url.Values{"output": {strconv.Itoa(outputItemID)}})
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes for %d: %w", outputItemID, err)
	}
	ids := make([]int, 0)
	gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
		ids = append(ids, int(value.Int()))
		return true
	})
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Ints(ids)
	recipes, err := c.findRecipes(ctx, ids[:1])
	if err != nil || len(recipes) == 0 {
		return nil, err
	}
	return recipes[0], nil
}

// FindDecorations returns an empty mapping: the public API exposes no direct
// upgrade-to-item link, so decorations come from catalog dumps only
func (c *GW2Client) FindDecorations(ctx context.Context) (map[int]int, error) {
	return make(map[int]int), nil
}

func (c *GW2Client) findRecipes(ctx context.Context, ids []int) ([]*crafting.Recipe, error) {
	recipes := make([]*crafting.Recipe, 0, len(ids))
	var mu sync.Mutex
	err := c.fetchBatches(ctx, "/recipes", ids, func(value gjson.Result) {
		recipe := catalog.ParseRecipe(value)
		mu.Lock()
		recipes = append(recipes, recipe)
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes: %w", err)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return recipes, nil
}

// fetchBatches requests ids in chunks of at most batchSize, several chunks at a time,
// and feeds every returned element to collect
func (c *GW2Client) fetchBatches(ctx context.Context, path string, ids []int, collect func(gjson.Result)) error {
	if len(ids) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		g.Go(func() error {
			body, err := c.get(gctx, path, url.Values{"ids": {joinIDs(batch)}})
			if errors.Is(err, errNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
				collect(value)
				return true
			})
			return nil
		})
	}
	return g.Wait()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// get performs one rate-limited GET. 200 and 206 (some ids unknown) are successes.
func (c *GW2Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	waitStart := time.Now()
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordRateLimitWait(http.MethodGet, path, time.Since(waitStart).Seconds())
	}

	if query == nil {
		query = url.Values{}
	}
	if c.language != "" {
		query.Set("lang", c.language)
	}
	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var body []byte
	err := c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("network error: %w", err)
		}
		defer resp.Body.Close()
		if c.metrics != nil {
			c.metrics.RecordAPIRequest(http.MethodGet, path, resp.StatusCode, time.Since(start).Seconds())
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return errNotFound
		default:
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
	})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON from %s", path)
	}
	return body, nil
}
