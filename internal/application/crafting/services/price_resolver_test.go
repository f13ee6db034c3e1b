package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

func prices(entries ...[3]int) map[int]*crafting.MarketPrice {
	result := make(map[int]*crafting.MarketPrice, len(entries))
	for _, e := range entries {
		result[e[0]] = &crafting.MarketPrice{ID: e[0], BuyPriceEach: e[1], SellPriceEach: e[2]}
	}
	return result
}

func TestPriceResolver_CraftsWhenChildrenAreCheaper(t *testing.T) {
	// Arrange - 200 costs 100 to buy, its ingredients cost 3 * 20 = 60
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 3)),
	)
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)

	// Act
	services.NewPriceResolver(tables, prices([3]int{200, 100, 90}, [3]int{300, 20, 15}), nil).Resolve(tree, true)

	// Assert
	ingredient := tree.Children[0]
	assert.True(t, ingredient.HasBuyPrice)
	assert.True(t, ingredient.Craft)
	assert.Equal(t, 100, ingredient.BuyPrice)
	assert.Equal(t, 60, ingredient.CraftPrice)
	assert.Equal(t, 60, ingredient.DecisionPrice)
	assert.Equal(t, 60, tree.CraftPrice)
}

func TestPriceResolver_BuysWhenMarketIsCheaper(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 3)),
	)
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)

	services.NewPriceResolver(tables, prices([3]int{200, 50, 40}, [3]int{300, 20, 15}), nil).Resolve(tree, true)

	ingredient := tree.Children[0]
	assert.False(t, ingredient.Craft)
	assert.Equal(t, 50, ingredient.DecisionPrice)
	assert.Equal(t, 50, ingredient.ResultPrice)
}

func TestPriceResolver_CraftsWhenNoBuyPrice(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 3)),
	)
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)

	services.NewPriceResolver(tables, prices([3]int{300, 20, 15}), nil).Resolve(tree, true)

	assert.True(t, tree.Children[0].Craft)
	assert.False(t, tree.Children[0].HasBuyPrice)
}

func TestPriceResolver_MissingLeafPriceWarns(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100, helpers.NewRecipe(1, 100, 1, helpers.Ing(300, 2), helpers.Ing(301, 2)))
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)
	warnings := crafting.NewWarnings()

	// Act
	services.NewPriceResolver(tables, prices([3]int{300, 10, 8}), warnings).Resolve(tree, true)

	// Assert
	missing := tree.Children[1]
	assert.False(t, missing.HasBuyPrice)
	assert.Equal(t, 0, missing.DecisionPrice)
	assert.Equal(t, 1, warnings.Count(crafting.WarningMissingPrice))
	assert.Equal(t, 20, tree.CraftPrice)
}

func TestPriceResolver_CurrencyValuation(t *testing.T) {
	// Arrange - 100 coins are worth 100 copper; 4 spirit shards carry a decision price only
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100, helpers.NewRecipe(1, 100, 1, helpers.Cur(1, 100), helpers.Cur(23, 4)))
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)
	warnings := crafting.NewWarnings()

	// Act
	services.NewPriceResolver(tables, nil, warnings).Resolve(tree, true)

	// Assert
	coins, shards := tree.Children[0], tree.Children[1]
	assert.Equal(t, 100, coins.BuyPrice)
	assert.Equal(t, 100, coins.DecisionPrice)
	assert.Equal(t, 100, coins.ResultPrice)
	assert.Equal(t, 400, shards.DecisionPrice)
	assert.Equal(t, 0, shards.ResultPrice)
	assert.Equal(t, 500, tree.CraftPrice)
	assert.Equal(t, 100, tree.CraftResultPrice)
	assert.Equal(t, 0, warnings.Len())
}

func TestPriceResolver_HonorsExistingFlagsWithoutDecide(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 3)),
	)
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)
	tree.Children[0].Craft = true

	services.NewPriceResolver(tables, prices([3]int{200, 10, 9}, [3]int{300, 20, 15}), nil).Resolve(tree, false)

	assert.True(t, tree.Children[0].Craft)
	assert.Equal(t, 60, tree.Children[0].DecisionPrice)
}
