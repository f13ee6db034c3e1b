package helpers

import (
	"strconv"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/catalog"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Ing builds an item ingredient
func Ing(id, count int) crafting.Ingredient {
	return crafting.Ingredient{ID: id, Kind: crafting.KindItem, Count: count}
}

// Cur builds a currency ingredient
func Cur(id, count int) crafting.Ingredient {
	return crafting.Ingredient{ID: id, Kind: crafting.KindCurrency, Count: count}
}

// Upgrade builds a guild upgrade ingredient
func Upgrade(id, count int) crafting.Ingredient {
	return crafting.Ingredient{ID: id, Kind: crafting.KindGuildUpgrade, Count: count}
}

// NewRecipe builds a discipline recipe producing batch units of outputID
func NewRecipe(recipeID, outputID, batch int, ingredients ...crafting.Ingredient) *crafting.Recipe {
	return &crafting.Recipe{
		ID:              recipeID,
		OutputItemID:    outputID,
		OutputItemCount: batch,
		Ingredients:     ingredients,
		Disciplines:     []string{"Artificer"},
	}
}

// NewMerchantRecipe builds a vendor purchase recipe
func NewMerchantRecipe(recipeID, outputID, batch int, merchant string, ingredients ...crafting.Ingredient) *crafting.Recipe {
	r := NewRecipe(recipeID, outputID, batch, ingredients...)
	r.Disciplines = []string{crafting.MerchantDiscipline}
	r.Merchant = &crafting.Merchant{Name: merchant}
	return r
}

// NewCatalog creates a catalog holding the recipes plus a named item for every id
// they reference
func NewCatalog(recipes ...*crafting.Recipe) *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()
	for _, r := range recipes {
		c.AddRecipe(r)
		c.AddItem(&crafting.Item{ID: r.OutputItemID, Name: ItemName(r.OutputItemID), Kind: crafting.KindItem})
		for _, ing := range r.Ingredients {
			if ing.Kind == crafting.KindItem {
				c.AddItem(&crafting.Item{ID: ing.ID, Name: ItemName(ing.ID), Kind: crafting.KindItem})
			}
		}
	}
	return c
}

// ItemName is the fixture name of an id
func ItemName(id int) string {
	return "Item " + strconv.Itoa(id)
}

// NewTestTables returns exception tables with the currency entries tests rely on:
// coin (1) at one copper, karma (2) without gold value, spirit shard (23) with a
// synthetic decision price of 100 copper
func NewTestTables() *crafting.ExceptionTables {
	one, shard := 1, 100
	tables := crafting.NewEmptyTables()
	tables.Version = "test"
	tables.Currencies = map[int]crafting.CurrencyValue{
		1:  {Name: "Coin", CopperPerUnit: &one},
		2:  {Name: "Karma"},
		23: {Name: "Spirit Shard", DecisionPrice: &shard},
	}
	return tables
}
