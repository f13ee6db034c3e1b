package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

func buildTree(t *testing.T, tables *crafting.ExceptionTables, target int, recipes ...*crafting.Recipe) *crafting.TreeNode {
	t.Helper()
	m, _ := newMaterializer(recipes, nil, tables)
	nested, err := m.Materialize(target, crafting.NewWarnings())
	require.NoError(t, err)
	require.NotNil(t, nested)
	return crafting.NewTreeFromRecipe(nested)
}

func TestQuantityPropagator_RoundsToOutputBatch(t *testing.T) {
	// Arrange - target 10, batch 5, one ingredient with count 2
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100, helpers.NewRecipe(1, 100, 5, helpers.Ing(200, 2)))

	// Act
	services.NewQuantityPropagator(tables).Propagate(tree, 10, nil, false)

	// Assert
	assert.Equal(t, 10, tree.TotalQuantity)
	assert.Equal(t, 4, tree.Children[0].TotalQuantity)
}

func TestQuantityPropagator_RoundsPartialBatchUp(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100, helpers.NewRecipe(1, 100, 5, helpers.Ing(200, 2)))

	services.NewQuantityPropagator(tables).Propagate(tree, 7, nil, false)

	assert.Equal(t, 10, tree.TotalQuantity)
	assert.Equal(t, 4, tree.Children[0].TotalQuantity)
}

func TestQuantityPropagator_OwnedStockCoversIngredient(t *testing.T) {
	// Arrange - ingredient 200 needs 4 and 10 are owned; its own child 300 is also owned
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 5, helpers.Ing(200, 2)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 3)),
	)
	pool := crafting.NewInventoryPool(map[int]int{200: 10, 300: 50})

	// Act
	services.NewQuantityPropagator(tables).Propagate(tree, 10, pool, false)

	// Assert
	ingredient := tree.Children[0]
	assert.Equal(t, 4, ingredient.TotalQuantity)
	assert.Equal(t, 4, ingredient.DrawnFromInventory)
	assert.Equal(t, 0, ingredient.UsedQuantity)

	grandchild := ingredient.Children[0]
	assert.Equal(t, 0, grandchild.DrawnFromInventory, "covered subtree must not consume inventory")
	assert.Equal(t, 50, pool[300])
	assert.Equal(t, 6, pool[200])
}

func TestQuantityPropagator_PartialInventoryReducesCrafts(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 10)),
		helpers.NewRecipe(2, 200, 2, helpers.Ing(300, 3)),
	)
	pool := crafting.NewInventoryPool(map[int]int{200: 5})

	services.NewQuantityPropagator(tables).Propagate(tree, 1, pool, false)

	ingredient := tree.Children[0]
	assert.Equal(t, 10, ingredient.TotalQuantity)
	assert.Equal(t, 5, ingredient.DrawnFromInventory)
	assert.Equal(t, 5, ingredient.UsedQuantity)
	// ceil(5 / 2) = 3 crafts of 3 each
	assert.Equal(t, 9, ingredient.Children[0].TotalQuantity)
}

func TestQuantityPropagator_RootAndCurrenciesNeverDraw(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100, helpers.NewRecipe(1, 100, 1, helpers.Cur(1, 500)))
	pool := crafting.NewInventoryPool(map[int]int{100: 3, 1: 1000})

	services.NewQuantityPropagator(tables).Propagate(tree, 2, pool, false)

	assert.Equal(t, 0, tree.DrawnFromInventory)
	assert.Equal(t, 2, tree.UsedQuantity)
	assert.Equal(t, 1000, tree.Children[0].TotalQuantity)
	assert.Equal(t, 0, tree.Children[0].DrawnFromInventory)
}

func TestQuantityPropagator_BoughtNodeStopsInventoryUse(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 1)),
	)
	tree.Children[0].Craft = false
	pool := crafting.NewInventoryPool(map[int]int{300: 5})

	services.NewQuantityPropagator(tables).Propagate(tree, 1, pool, false)

	assert.Equal(t, 0, tree.Children[0].Children[0].DrawnFromInventory)
	assert.Equal(t, 5, pool[300])
}

func TestQuantityPropagator_FixedRatioVector(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tables.FixedRatio = crafting.FixedRatioTable{
		ItemID: 500,
		Quantities: map[int]map[int]int{
			77: {501: 250, 502: 250, 503: 250, 23: 1500},
		},
	}
	tree := buildTree(t, tables, 600,
		helpers.NewRecipe(1, 600, 1, helpers.Ing(500, 77)),
		helpers.NewRecipe(2, 500, 1, helpers.Ing(501, 1), helpers.Ing(502, 1), helpers.Ing(503, 1), helpers.Cur(23, 6)),
	)

	// Act
	services.NewQuantityPropagator(tables).Propagate(tree, 1, nil, false)

	// Assert
	clover := tree.Children[0]
	assert.Equal(t, 77, clover.UsedQuantity)
	assert.Equal(t, 250, clover.Children[0].TotalQuantity)
	assert.Equal(t, 250, clover.Children[1].TotalQuantity)
	assert.Equal(t, 250, clover.Children[2].TotalQuantity)
	assert.Equal(t, 1500, clover.Children[3].TotalQuantity)
}

func TestQuantityPropagator_QuantityInvariants(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 3, helpers.Ing(200, 7), helpers.Ing(300, 2)),
		helpers.NewRecipe(2, 200, 4, helpers.Ing(300, 5), helpers.Ing(400, 1)),
		helpers.NewRecipe(3, 300, 10, helpers.Ing(400, 3)),
	)
	pool := crafting.NewInventoryPool(map[int]int{200: 6, 300: 13, 400: 2})

	// Act
	services.NewQuantityPropagator(tables).Propagate(tree, 11, pool, false)

	// Assert
	tree.Walk(func(node *crafting.TreeNode, _ int) bool {
		if !node.IsLeaf() {
			assert.Zero(t, node.TotalQuantity%node.OutputBatch, "node %d total not a batch multiple", node.ID)
		}
		assert.Equal(t, node.TotalQuantity, node.UsedQuantity+node.DrawnFromInventory, "node %d", node.ID)
		assert.GreaterOrEqual(t, node.DrawnFromInventory, 0)
		return true
	})
}
