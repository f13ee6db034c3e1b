package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Importer reads GW2-API-shaped catalog dumps:
//
//	{
//	  "items":       [{"id", "name", "icon", "rarity", "type"}],
//	  "recipes":     [{"id", "output_item_id", "output_item_count", "output_upgrade_id",
//	                   "disciplines", "min_rating", "ingredients": [{"type", "id", "count"}],
//	                   "merchant": {"name", "locations"}, "daily_purchase_cap", "weekly_purchase_cap"}],
//	  "prices":      [{"id", "buys": {"unit_price"}, "sells": {"unit_price"}}],
//	  "decorations": {"<upgrade id>": <item id>}
//	}
//
// Files ending in .br are brotli compressed.
type Importer struct{}

// NewImporter creates an importer
func NewImporter() *Importer {
	return &Importer{}
}

// ImportFile reads and parses a dump from disk
func (im *Importer) ImportFile(path string) (*crafting.CatalogDump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog dump: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".br") {
		reader = brotli.NewReader(f)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog dump %s: %w", path, err)
	}
	return im.Parse(data)
}

// Parse parses an uncompressed dump
func (im *Importer) Parse(data []byte) (*crafting.CatalogDump, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("catalog dump is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	dump := &crafting.CatalogDump{
		Items:       make([]*crafting.Item, 0),
		Recipes:     make([]*crafting.Recipe, 0),
		Prices:      make([]*crafting.MarketPrice, 0),
		Decorations: make(map[int]int),
	}

	root.Get("items").ForEach(func(_, value gjson.Result) bool {
		dump.Items = append(dump.Items, parseItem(value))
		return true
	})

	var parseErr error
	root.Get("recipes").ForEach(func(_, value gjson.Result) bool {
		recipe := ParseRecipe(value)
		if err := recipe.Validate(); err != nil {
			parseErr = err
			return false
		}
		dump.Recipes = append(dump.Recipes, recipe)
		return true
	})
	if parseErr != nil {
		return nil, fmt.Errorf("invalid recipe in catalog dump: %w", parseErr)
	}

	root.Get("prices").ForEach(func(_, value gjson.Result) bool {
		dump.Prices = append(dump.Prices, ParsePrice(value))
		return true
	})

	root.Get("decorations").ForEach(func(key, value gjson.Result) bool {
		upgradeID, err := strconv.Atoi(key.String())
		if err != nil {
			parseErr = fmt.Errorf("decoration key %q: %w", key.String(), err)
			return false
		}
		dump.Decorations[upgradeID] = int(value.Int())
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return dump, nil
}

func parseItem(value gjson.Result) *crafting.Item {
	kind := crafting.KindItem
	if value.Get("type").String() == string(crafting.KindCurrency) {
		kind = crafting.KindCurrency
	}
	return &crafting.Item{
		ID:     int(value.Get("id").Int()),
		Name:   value.Get("name").String(),
		Icon:   value.Get("icon").String(),
		Rarity: value.Get("rarity").String(),
		Kind:   kind,
	}
}

// ParseRecipe maps a GW2 API recipe object. Ingredients without a type are items,
// and the legacy guild_ingredients list becomes guild upgrade ingredients.
func ParseRecipe(value gjson.Result) *crafting.Recipe {
	recipe := &crafting.Recipe{
		ID:              int(value.Get("id").Int()),
		OutputItemID:    int(value.Get("output_item_id").Int()),
		OutputItemCount: int(value.Get("output_item_count").Int()),
		OutputUpgradeID: int(value.Get("output_upgrade_id").Int()),
		MinRating:       int(value.Get("min_rating").Int()),
		DailyCap:        int(value.Get("daily_purchase_cap").Int()),
		WeeklyCap:       int(value.Get("weekly_purchase_cap").Int()),
		Ingredients:     make([]crafting.Ingredient, 0),
		Disciplines:     make([]string, 0),
	}

	value.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		id := ing.Get("id")
		if !id.Exists() {
			id = ing.Get("item_id")
		}
		recipe.Ingredients = append(recipe.Ingredients, crafting.Ingredient{
			ID:    int(id.Int()),
			Kind:  crafting.ParseItemKind(ing.Get("type").String()),
			Count: int(ing.Get("count").Int()),
		})
		return true
	})
	value.Get("guild_ingredients").ForEach(func(_, ing gjson.Result) bool {
		recipe.Ingredients = append(recipe.Ingredients, crafting.Ingredient{
			ID:    int(ing.Get("upgrade_id").Int()),
			Kind:  crafting.KindGuildUpgrade,
			Count: int(ing.Get("count").Int()),
		})
		return true
	})
	value.Get("disciplines").ForEach(func(_, d gjson.Result) bool {
		recipe.Disciplines = append(recipe.Disciplines, d.String())
		return true
	})

	if merchant := value.Get("merchant"); merchant.Exists() {
		recipe.Merchant = &crafting.Merchant{Name: merchant.Get("name").String()}
		merchant.Get("locations").ForEach(func(_, loc gjson.Result) bool {
			recipe.Merchant.Locations = append(recipe.Merchant.Locations, loc.String())
			return true
		})
	}
	return recipe
}

// ParsePrice maps a GW2 API commerce price. The instant-buy price is the lowest
// sell listing and the instant-sell price is the highest buy order.
func ParsePrice(value gjson.Result) *crafting.MarketPrice {
	return &crafting.MarketPrice{
		ID:            int(value.Get("id").Int()),
		BuyPriceEach:  int(value.Get("sells.unit_price").Int()),
		SellPriceEach: int(value.Get("buys.unit_price").Int()),
	}
}
