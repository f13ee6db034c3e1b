package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// MemoryCatalog is an in-memory implementation of the catalog ports.
// It backs the file catalog source and the tests.
type MemoryCatalog struct {
	mu          sync.RWMutex
	items       map[int]*crafting.Item
	recipes     map[int]*crafting.Recipe
	prices      map[int]*crafting.MarketPrice
	decorations map[int]int
}

// NewMemoryCatalog creates an empty catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items:       make(map[int]*crafting.Item),
		recipes:     make(map[int]*crafting.Recipe),
		prices:      make(map[int]*crafting.MarketPrice),
		decorations: make(map[int]int),
	}
}

// AddItem stores or replaces an item
func (c *MemoryCatalog) AddItem(item *crafting.Item) *MemoryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
	return c
}

// AddRecipe stores or replaces a recipe by recipe id
func (c *MemoryCatalog) AddRecipe(recipe *crafting.Recipe) *MemoryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes[recipe.ID] = recipe
	return c
}

// SetPrice stores the market price of an item
func (c *MemoryCatalog) SetPrice(id, buyEach, sellEach int) *MemoryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[id] = &crafting.MarketPrice{ID: id, BuyPriceEach: buyEach, SellPriceEach: sellEach}
	return c
}

// AddDecoration maps a guild upgrade id to its decoration item id
func (c *MemoryCatalog) AddDecoration(upgradeID, itemID int) *MemoryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decorations[upgradeID] = itemID
	return c
}

// Snapshot replaces the whole content, used after an import
func (c *MemoryCatalog) Snapshot(dump *crafting.CatalogDump) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[int]*crafting.Item, len(dump.Items))
	for _, item := range dump.Items {
		c.items[item.ID] = item
	}
	c.recipes = make(map[int]*crafting.Recipe, len(dump.Recipes))
	for _, recipe := range dump.Recipes {
		c.recipes[recipe.ID] = recipe
	}
	c.prices = make(map[int]*crafting.MarketPrice, len(dump.Prices))
	for _, price := range dump.Prices {
		c.prices[price.ID] = price
	}
	c.decorations = make(map[int]int, len(dump.Decorations))
	for upgradeID, itemID := range dump.Decorations {
		c.decorations[upgradeID] = itemID
	}
}

// SaveCatalog merges a dump into the catalog, overwriting entries with the same key
func (c *MemoryCatalog) SaveCatalog(ctx context.Context, dump *crafting.CatalogDump) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range dump.Items {
		c.items[item.ID] = item
	}
	for _, recipe := range dump.Recipes {
		c.recipes[recipe.ID] = recipe
	}
	for _, price := range dump.Prices {
		c.prices[price.ID] = price
	}
	for upgradeID, itemID := range dump.Decorations {
		c.decorations[upgradeID] = itemID
	}
	return nil
}

// FindItems returns the known items among ids
func (c *MemoryCatalog) FindItems(ctx context.Context, ids []int) (map[int]*crafting.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[int]*crafting.Item, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			result[id] = item
		}
	}
	return result, nil
}

// FindAllRecipes returns every recipe ordered by recipe id
func (c *MemoryCatalog) FindAllRecipes(ctx context.Context) ([]*crafting.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*crafting.Recipe, 0, len(c.recipes))
	for _, recipe := range c.recipes {
		result = append(result, recipe)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// FindByOutputID returns the lowest-id recipe producing an item, or nil
func (c *MemoryCatalog) FindByOutputID(ctx context.Context, itemID int) (*crafting.Recipe, error) {
	recipes, _ := c.FindAllRecipes(ctx)
	for _, recipe := range recipes {
		if recipe.OutputItemID == itemID {
			return recipe, nil
		}
	}
	return nil, nil
}

// FindPrices returns the known prices among ids
func (c *MemoryCatalog) FindPrices(ctx context.Context, ids []int) (map[int]*crafting.MarketPrice, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[int]*crafting.MarketPrice, len(ids))
	for _, id := range ids {
		if price, ok := c.prices[id]; ok {
			result[id] = price
		}
	}
	return result, nil
}

// FindDecorations returns a copy of the upgrade → item mapping
func (c *MemoryCatalog) FindDecorations(ctx context.Context) (map[int]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[int]int, len(c.decorations))
	for k, v := range c.decorations {
		result[k] = v
	}
	return result, nil
}
