package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/catalog"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

const sampleDump = `{
  "items": [
    {"id": 19748, "name": "Bolt of Silk", "rarity": "Basic"},
    {"id": 19729, "name": "Silk Scrap", "rarity": "Basic"},
    {"id": 23, "name": "Spirit Shard", "type": "Currency"}
  ],
  "recipes": [
    {"id": 13, "output_item_id": 19748, "output_item_count": 1, "disciplines": ["Tailor", "Armorsmith"],
     "min_rating": 150, "ingredients": [{"item_id": 19729, "count": 3}]},
    {"id": 9000, "output_upgrade_id": 44, "output_item_count": 1, "disciplines": ["Scribe"],
     "ingredients": [{"type": "Currency", "id": 23, "count": 5}],
     "guild_ingredients": [{"upgrade_id": 45, "count": 2}],
     "merchant": {"name": "Guild Decorator", "locations": ["Guild Hall"]}, "daily_purchase_cap": 1}
  ],
  "prices": [{"id": 19729, "buys": {"unit_price": 40}, "sells": {"unit_price": 45}}],
  "decorations": {"45": 70001}
}`

func TestImporter_ParseMapsEverySection(t *testing.T) {
	// Act
	dump, err := catalog.NewImporter().Parse([]byte(sampleDump))

	// Assert
	require.NoError(t, err)
	require.Len(t, dump.Items, 3)
	assert.Equal(t, crafting.KindCurrency, dump.Items[2].Kind)

	require.Len(t, dump.Recipes, 2)
	silk := dump.Recipes[0]
	assert.Equal(t, []crafting.Ingredient{{ID: 19729, Kind: crafting.KindItem, Count: 3}}, silk.Ingredients)
	assert.Equal(t, 150, silk.MinRating)

	decoration := dump.Recipes[1]
	require.Len(t, decoration.Ingredients, 2)
	assert.Equal(t, crafting.KindCurrency, decoration.Ingredients[0].Kind)
	assert.Equal(t, crafting.Ingredient{ID: 45, Kind: crafting.KindGuildUpgrade, Count: 2}, decoration.Ingredients[1])
	require.NotNil(t, decoration.Merchant)
	assert.Equal(t, "Guild Decorator", decoration.Merchant.Name)
	assert.Equal(t, 1, decoration.DailyCap)

	require.Len(t, dump.Prices, 1)
	assert.Equal(t, 45, dump.Prices[0].BuyPriceEach)
	assert.Equal(t, 40, dump.Prices[0].SellPriceEach)
	assert.Equal(t, map[int]int{45: 70001}, dump.Decorations)
}

func TestImporter_RejectsMalformedRecipe(t *testing.T) {
	_, err := catalog.NewImporter().Parse([]byte(`{"recipes": [{"id": 7, "output_item_id": 1, "output_item_count": 0}]}`))

	var malformed *crafting.ErrMalformedRecipe
	assert.ErrorAs(t, err, &malformed)
}

func TestImporter_RejectsInvalidJSON(t *testing.T) {
	_, err := catalog.NewImporter().Parse([]byte(`{"items": [`))

	assert.Error(t, err)
}

func TestImporter_ImportFileReadsBrotli(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "catalog.json.br")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := brotli.NewWriter(f)
	_, err = w.Write([]byte("\xef\xbb\xbf" + sampleDump))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	// Act
	dump, err := catalog.NewImporter().ImportFile(path)

	// Assert
	require.NoError(t, err)
	assert.Len(t, dump.Recipes, 2)
}

func TestImporter_ImportFileMissing(t *testing.T) {
	_, err := catalog.NewImporter().ImportFile(filepath.Join(t.TempDir(), "absent.json"))

	assert.ErrorContains(t, err, "failed to open catalog dump")
}

func TestMemoryCatalog_SaveCatalogMergesAndPicksLowestRecipe(t *testing.T) {
	// Arrange
	ctx := context.Background()
	memory := catalog.NewMemoryCatalog()
	dump, err := catalog.NewImporter().Parse([]byte(sampleDump))
	require.NoError(t, err)
	memory.Snapshot(dump)

	// Act
	err = memory.SaveCatalog(ctx, &crafting.CatalogDump{
		Recipes: []*crafting.Recipe{{ID: 5, OutputItemID: 19748, OutputItemCount: 2}},
		Prices:  []*crafting.MarketPrice{{ID: 19729, BuyPriceEach: 50, SellPriceEach: 41}},
	})

	// Assert
	require.NoError(t, err)
	recipe, err := memory.FindByOutputID(ctx, 19748)
	require.NoError(t, err)
	assert.Equal(t, 5, recipe.ID)
	prices, err := memory.FindPrices(ctx, []int{19729, 1})
	require.NoError(t, err)
	assert.Equal(t, 50, prices[19729].BuyPriceEach)
	assert.NotContains(t, prices, 1)
	items, err := memory.FindItems(ctx, []int{19748})
	require.NoError(t, err)
	assert.Equal(t, "Bolt of Silk", items[19748].Name)
}
