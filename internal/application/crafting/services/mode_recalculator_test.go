package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

func pricedTree(t *testing.T, tables *crafting.ExceptionTables, p map[int]*crafting.MarketPrice, target int, recipes ...*crafting.Recipe) *crafting.TreeNode {
	t.Helper()
	tree := buildTree(t, tables, target, recipes...)
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)
	services.NewPriceResolver(tables, p, nil).Resolve(tree, true)
	return tree
}

func TestModeRecalculator_ScalesCountsWithoutRounding(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tree := pricedTree(t, tables, prices([3]int{200, 30, 25}, [3]int{300, 4, 3}), 100,
		helpers.NewRecipe(1, 100, 5, helpers.Ing(200, 2)),
		helpers.NewRecipe(2, 200, 3, helpers.Ing(300, 7)),
	)

	// Act
	totals := services.NewModeRecalculator(tables).Recalculate(tree, 3)

	// Assert
	assert.Equal(t, 3, tree.CountTotal)
	assert.Equal(t, 6, tree.Children[0].CountTotal)
	assert.Equal(t, 42, tree.Children[0].Children[0].CountTotal)
	// 200 defaults to buy: 6 * 30
	assert.Equal(t, 180, totals.TotalCrafted)
	assert.InDelta(t, 36.0, tree.CraftedPrice, 1e-9)
}

func TestModeRecalculator_ModesSelectChildTotals(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tree := pricedTree(t, tables, prices([3]int{200, 30, 25}, [3]int{300, 4, 3}), 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 2)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 5)),
	)
	recalc := services.NewModeRecalculator(tables)

	// Act / Assert - sell
	services.SetMode(tree, 200, crafting.ModeSell)
	totals := recalc.Recalculate(tree, 1)
	assert.Equal(t, 50, totals.TotalCrafted)

	// crafted: 2 * 5 * 4
	services.SetMode(tree, 200, crafting.ModeCrafted)
	totals = recalc.Recalculate(tree, 1)
	assert.Equal(t, 40, totals.TotalCrafted)
	assert.Equal(t, 40, tree.Children[0].TotalCrafted)

	// crafted on a leaf falls back to buy
	services.SetMode(tree, 300, crafting.ModeCrafted)
	totals = recalc.Recalculate(tree, 1)
	assert.Equal(t, 40, totals.TotalCrafted)
}

func TestModeRecalculator_FixedRatioChildren(t *testing.T) {
	tables := helpers.NewTestTables()
	tables.FixedRatio = crafting.FixedRatioTable{
		ItemID:     500,
		Quantities: map[int]map[int]int{38: {501: 126, 502: 126, 503: 126, 23: 756}},
	}
	tree := pricedTree(t, tables, nil, 500,
		helpers.NewRecipe(1, 500, 1, helpers.Ing(501, 1), helpers.Ing(502, 1), helpers.Ing(503, 1), helpers.Cur(23, 6)),
	)

	services.NewModeRecalculator(tables).Recalculate(tree, 38)

	require.Len(t, tree.Children, 4)
	assert.Equal(t, 126, tree.Children[0].CountTotal)
	assert.Equal(t, 756, tree.Children[3].CountTotal)
}

func TestModeRecalculator_UsesSharedPricesAcrossRecalculations(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := pricedTree(t, tables, prices([3]int{100, 1000, 900}, [3]int{300, 4, 3}), 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(300, 5)),
	)
	recalc := services.NewModeRecalculator(tables)

	first := recalc.Recalculate(tree, 2)
	second := recalc.Recalculate(tree, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, 2000, first.TotalBuy)
	assert.Equal(t, 1800, first.TotalSell)
	assert.Equal(t, 40, first.TotalCrafted)
}
