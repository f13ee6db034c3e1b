package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Cache names reported to the observer
const (
	CacheRecipes = "recipes"
	CacheResults = "results"
)

// RecipeCache memoizes fully resolved recipe expansions by kind and id.
// Entries are shared between requests and must not be mutated.
// A nil *RecipeCache disables memoization.
type RecipeCache struct {
	store    *gocache.Cache
	observer Observer
}

// NewRecipeCache creates a recipe cache. A zero ttl keeps entries until Flush.
func NewRecipeCache(ttl, cleanupInterval time.Duration) *RecipeCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &RecipeCache{store: gocache.New(ttl, cleanupInterval)}
}

// SetObserver attaches hit/miss reporting
func (c *RecipeCache) SetObserver(observer Observer) {
	if c != nil {
		c.observer = observer
	}
}

func recipeKey(kind crafting.ItemKind, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Get returns the memoized expansion for an id
func (c *RecipeCache) Get(kind crafting.ItemKind, id int) (*crafting.NestedRecipe, bool) {
	if c == nil {
		return nil, false
	}
	value, found := c.store.Get(recipeKey(kind, id))
	if c.observer != nil {
		c.observer.RecordCacheLookup(CacheRecipes, found)
	}
	if !found {
		return nil, false
	}
	return value.(*crafting.NestedRecipe), true
}

// Set memoizes an expansion
func (c *RecipeCache) Set(kind crafting.ItemKind, id int, recipe *crafting.NestedRecipe) {
	if c == nil {
		return
	}
	c.store.SetDefault(recipeKey(kind, id), recipe)
}

// Len returns the number of memoized expansions
func (c *RecipeCache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}

// Flush drops every entry, used when the catalog changes
func (c *RecipeCache) Flush() {
	if c != nil {
		c.store.Flush()
	}
}

// ResultCache keeps finished calculations keyed by a fingerprint of their inputs.
// Results are cloned on the way in and out so callers may mutate what they get.
type ResultCache struct {
	store    *gocache.Cache
	observer Observer
}

// NewResultCache creates a result cache with the given entry lifetime
func NewResultCache(ttl, cleanupInterval time.Duration) *ResultCache {
	return &ResultCache{store: gocache.New(ttl, cleanupInterval)}
}

// SetObserver attaches hit/miss reporting
func (c *ResultCache) SetObserver(observer Observer) {
	if c != nil {
		c.observer = observer
	}
}

// Get returns a copy of the cached result for key
func (c *ResultCache) Get(key string) (*CalculationResult, bool) {
	if c == nil {
		return nil, false
	}
	value, found := c.store.Get(key)
	if c.observer != nil {
		c.observer.RecordCacheLookup(CacheResults, found)
	}
	if !found {
		return nil, false
	}
	return value.(*CalculationResult).Clone(), true
}

// Set stores a copy of result under key
func (c *ResultCache) Set(key string, result *CalculationResult) {
	if c == nil {
		return
	}
	c.store.SetDefault(key, result.Clone())
}

// Flush drops every entry
func (c *ResultCache) Flush() {
	if c != nil {
		c.store.Flush()
	}
}

// Fingerprint hashes everything a calculation depends on: the request, the table
// version and the market prices of the ids involved.
func Fingerprint(req CalculationRequest, tablesVersion string, prices map[int]*crafting.MarketPrice) string {
	h := xxhash.New()
	fmt.Fprintf(h, "v=%s;item=%d;qty=%d;valueOwn=%t;", tablesVersion, req.ItemID, req.Quantity, req.ValueOwnItems)

	writeSortedMap(h, "own", req.Inventory)
	writeSortedMap(h, "tier", req.EfficiencyTiers)

	forceBuy := append([]int(nil), req.ForceBuy...)
	sort.Ints(forceBuy)
	fmt.Fprintf(h, "force=%v;", forceBuy)

	priceIDs := make([]int, 0, len(prices))
	for id := range prices {
		priceIDs = append(priceIDs, id)
	}
	sort.Ints(priceIDs)
	for _, id := range priceIDs {
		if p := prices[id]; p != nil {
			fmt.Fprintf(h, "p%d=%d/%d;", id, p.BuyPriceEach, p.SellPriceEach)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func writeSortedMap(h *xxhash.Digest, label string, values map[int]int) {
	keys := make([]int, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fmt.Fprintf(h, "%s=", label)
	for _, k := range keys {
		fmt.Fprintf(h, "%d:%d,", k, values[k])
	}
	h.WriteString(";")
}
