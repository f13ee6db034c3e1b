package crafting

import "context"

// ItemRepository resolves item metadata. Lookups are batched; missing ids are simply absent.
type ItemRepository interface {
	FindItems(ctx context.Context, ids []int) (map[int]*Item, error)
}

// RecipeRepository exposes the flat recipe catalog
type RecipeRepository interface {
	// FindAllRecipes returns every known recipe
	FindAllRecipes(ctx context.Context) ([]*Recipe, error)

	// FindByOutputID returns the recipe producing an item, or nil if none exists
	FindByOutputID(ctx context.Context, outputItemID int) (*Recipe, error)
}

// PriceRepository resolves trading post prices. Missing ids are simply absent.
type PriceRepository interface {
	FindPrices(ctx context.Context, ids []int) (map[int]*MarketPrice, error)
}

// DecorationRepository maps guild upgrade ids to the item that substitutes them
type DecorationRepository interface {
	FindDecorations(ctx context.Context) (map[int]int, error)
}

// Catalog bundles every lookup the engine consumes
type Catalog interface {
	ItemRepository
	RecipeRepository
	PriceRepository
	DecorationRepository
}

// CatalogDump is a full catalog export as produced by an import
type CatalogDump struct {
	Items       []*Item
	Recipes     []*Recipe
	Prices      []*MarketPrice
	Decorations map[int]int
}

// CatalogWriter stores imported catalog data
type CatalogWriter interface {
	SaveCatalog(ctx context.Context, dump *CatalogDump) error
}
