package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/persistence"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

func TestCatalogRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCatalogRepository(db)
	ctx := context.Background()

	recipe := helpers.NewMerchantRecipe(10, 100, 5, "Miyani", helpers.Ing(200, 3), helpers.Cur(2, 2100))
	recipe.DailyCap = 10
	items := []*crafting.Item{
		{ID: 100, Name: "Obsidian Shard", Rarity: "Rare", Kind: crafting.KindItem},
		{ID: 200, Name: "Mystic Coin"},
	}
	prices := []*crafting.MarketPrice{{ID: 200, BuyPriceEach: 9000, SellPriceEach: 8500}}

	// Act
	err := repo.SaveCatalog(ctx, &crafting.CatalogDump{
		Items:       items,
		Recipes:     []*crafting.Recipe{recipe},
		Prices:      prices,
		Decorations: map[int]int{55: 200},
	})

	// Assert
	require.NoError(t, err)

	foundItems, err := repo.FindItems(ctx, []int{100, 200, 999})
	require.NoError(t, err)
	assert.Len(t, foundItems, 2)
	assert.Equal(t, "Obsidian Shard", foundItems[100].Name)
	assert.Equal(t, crafting.KindItem, foundItems[200].Kind)

	found, err := repo.FindByOutputID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, recipe.Ingredients, found.Ingredients)
	assert.Equal(t, recipe.Disciplines, found.Disciplines)
	require.NotNil(t, found.Merchant)
	assert.Equal(t, "Miyani", found.Merchant.Name)
	assert.Equal(t, 10, found.DailyCap)
	assert.True(t, found.IsMerchantOnly())

	foundPrices, err := repo.FindPrices(ctx, []int{100, 200})
	require.NoError(t, err)
	assert.NotContains(t, foundPrices, 100)
	assert.Equal(t, 9000, foundPrices[200].BuyPriceEach)

	decorations, err := repo.FindDecorations(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{55: 200}, decorations)
}

func TestCatalogRepository_SaveOverwritesExistingRows(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCatalogRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveCatalog(ctx, &crafting.CatalogDump{Prices: []*crafting.MarketPrice{{ID: 1, BuyPriceEach: 10, SellPriceEach: 8}}}))

	// Act
	err := repo.SaveCatalog(ctx, &crafting.CatalogDump{Prices: []*crafting.MarketPrice{{ID: 1, BuyPriceEach: 12, SellPriceEach: 9}}})

	// Assert
	require.NoError(t, err)
	prices, err := repo.FindPrices(ctx, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 12, prices[1].BuyPriceEach)
	_, _, count, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCatalogRepository_FindByOutputIDPrefersLowestRecipe(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCatalogRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveCatalog(ctx, &crafting.CatalogDump{Recipes: []*crafting.Recipe{
		helpers.NewRecipe(30, 7, 1, helpers.Ing(1, 1)),
		helpers.NewRecipe(20, 7, 1, helpers.Ing(2, 1)),
	}}))

	found, err := repo.FindByOutputID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 20, found.ID)

	missing, err := repo.FindByOutputID(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
