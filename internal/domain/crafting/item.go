package crafting

import "fmt"

// ItemKind classifies what an id refers to in the catalog
type ItemKind string

const (
	// KindItem is a regular tradable or account-bound item
	KindItem ItemKind = "Item"

	// KindCurrency is a wallet currency (coin, karma, spirit shards...)
	KindCurrency ItemKind = "Currency"

	// KindGuildUpgrade is a guild hall upgrade referenced by upgrade id
	KindGuildUpgrade ItemKind = "GuildUpgrade"
)

// ParseItemKind maps catalog strings onto an ItemKind, defaulting to KindItem
func ParseItemKind(s string) ItemKind {
	switch s {
	case string(KindCurrency):
		return KindCurrency
	case string(KindGuildUpgrade):
		return KindGuildUpgrade
	default:
		return KindItem
	}
}

// Item is the catalog metadata for one id
type Item struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Icon   string   `json:"icon,omitempty"`
	Rarity string   `json:"rarity,omitempty"`
	Kind   ItemKind `json:"kind"`
}

// Ingredient is one input line of a recipe
type Ingredient struct {
	ID    int      `json:"id"`
	Kind  ItemKind `json:"kind"`
	Count int      `json:"count"`
}

// Merchant describes a vendor that sells a recipe's output
type Merchant struct {
	Name      string   `json:"name"`
	Locations []string `json:"locations,omitempty"`
}

// MerchantDiscipline is the pseudo-discipline used for vendor purchases
const MerchantDiscipline = "Merchant"

// Recipe is a flat catalog recipe. Ingredients may reference other recipes' outputs.
type Recipe struct {
	ID              int          `json:"id"`
	OutputItemID    int          `json:"output_item_id"`
	OutputItemCount int          `json:"output_item_count"`
	OutputUpgradeID int          `json:"output_upgrade_id,omitempty"`
	Ingredients     []Ingredient `json:"ingredients"`
	Disciplines     []string     `json:"disciplines,omitempty"`
	MinRating       int          `json:"min_rating,omitempty"`
	Merchant        *Merchant    `json:"merchant,omitempty"`
	DailyCap        int          `json:"daily_cap,omitempty"`
	WeeklyCap       int          `json:"weekly_cap,omitempty"`
}

// Validate rejects recipe shapes that would corrupt quantity math
func (r *Recipe) Validate() error {
	if r.OutputItemID < 1 && r.OutputUpgradeID < 1 {
		return &ErrMalformedRecipe{RecipeID: r.ID, Reason: "missing output id"}
	}
	if r.OutputItemCount < 1 {
		return &ErrMalformedRecipe{RecipeID: r.ID, Reason: fmt.Sprintf("output count %d", r.OutputItemCount)}
	}
	for _, ing := range r.Ingredients {
		if ing.ID < 1 {
			return &ErrMalformedRecipe{RecipeID: r.ID, Reason: fmt.Sprintf("ingredient id %d", ing.ID)}
		}
		if ing.Count < 1 {
			return &ErrMalformedRecipe{RecipeID: r.ID, Reason: fmt.Sprintf("ingredient %d count %d", ing.ID, ing.Count)}
		}
	}
	return nil
}

// IsMerchantOnly returns true if the recipe is a plain vendor purchase
func (r *Recipe) IsMerchantOnly() bool {
	return len(r.Disciplines) == 1 && r.Disciplines[0] == MerchantDiscipline
}

// MarketPrice holds trading post prices in copper
type MarketPrice struct {
	ID            int `json:"id"`
	BuyPriceEach  int `json:"buy_price_each"`
	SellPriceEach int `json:"sell_price_each"`
}

// Totals are the aggregate costs exposed for a computed tree
type Totals struct {
	TotalBuy     int `json:"totalBuy"`
	TotalSell    int `json:"totalSell"`
	TotalCrafted int `json:"totalCrafted"`
}
