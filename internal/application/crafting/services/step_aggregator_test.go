package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

// craftAll marks every non-leaf node as crafted after propagating quantities
func craftAll(tables *crafting.ExceptionTables, tree *crafting.TreeNode, qty int) {
	services.NewQuantityPropagator(tables).Propagate(tree, qty, nil, false)
	services.RefineCraftFlags(tree)
}

func stepIndex(steps []*crafting.CraftingStep) map[int]int {
	index := make(map[int]int, len(steps))
	for i, s := range steps {
		index[s.ID] = i
	}
	return index
}

func TestStepAggregator_MergesRepeatedItems(t *testing.T) {
	// Arrange - 300 appears under 100 directly and under 200
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(300, 3), helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 4)),
		helpers.NewRecipe(3, 300, 5, helpers.Ing(400, 2)),
	)
	craftAll(tables, tree, 1)

	// Act
	steps := services.NewStepAggregator(tables).Aggregate(tree)

	// Assert
	count := 0
	for _, s := range steps {
		if s.ID == 300 {
			count++
			// two occurrences of 5 (rounded to the batch of 5)
			assert.Equal(t, 10, s.Quantity)
			assert.Equal(t, 2, s.Crafts)
			require.Len(t, s.Components, 1)
			assert.Equal(t, 400, s.Components[0].ID)
			assert.Equal(t, 4, s.Components[0].Quantity)
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, steps, 3)
}

func TestStepAggregator_IngredientsBeforeConsumers(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1), helpers.Ing(300, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 1), helpers.Ing(400, 1)),
		helpers.NewRecipe(3, 300, 1, helpers.Ing(400, 1)),
		helpers.NewRecipe(4, 400, 1, helpers.Ing(500, 1)),
	)
	craftAll(tables, tree, 1)

	// Act
	steps := services.NewStepAggregator(tables).Aggregate(tree)

	// Assert
	index := stepIndex(steps)
	require.Len(t, steps, 4)
	assert.Less(t, index[400], index[300])
	assert.Less(t, index[300], index[200])
	assert.Less(t, index[200], index[100])
	assert.Equal(t, 100, steps[len(steps)-1].ID)

	tree.Walk(func(node *crafting.TreeNode, _ int) bool {
		for _, child := range node.Children {
			if ci, ok := index[child.ID]; ok {
				assert.Less(t, ci, index[node.ID], "%d must precede %d", child.ID, node.ID)
			}
		}
		return true
	})
}

func TestStepAggregator_SpecialStepsComeFirst(t *testing.T) {
	// Arrange - 500 is the fixed-ratio item; 700 and 701 are vendor purchases
	tables := helpers.NewTestTables()
	tables.FixedRatio = crafting.FixedRatioTable{ItemID: 500}
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1), helpers.Ing(701, 1), helpers.Ing(500, 1), helpers.Ing(700, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 1)),
		helpers.NewRecipe(3, 500, 1, helpers.Ing(501, 1)),
		helpers.NewMerchantRecipe(4, 700, 1, "Zelda", helpers.Cur(2, 100)),
		helpers.NewMerchantRecipe(5, 701, 1, "Anvil", helpers.Cur(1, 100)),
	)
	craftAll(tables, tree, 1)

	// Act
	steps := services.NewStepAggregator(tables).Aggregate(tree)

	// Assert
	require.Len(t, steps, 5)
	assert.Equal(t, 500, steps[0].ID)
	assert.Equal(t, 701, steps[1].ID)
	assert.Equal(t, "Anvil", steps[1].MerchantName)
	assert.Equal(t, 700, steps[2].ID)
	assert.Equal(t, 200, steps[3].ID)
	assert.Equal(t, 100, steps[4].ID)
}

func TestStepAggregator_SkipsBoughtSubtrees(t *testing.T) {
	tables := helpers.NewTestTables()
	tree := buildTree(t, tables, 100,
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 1)),
		helpers.NewRecipe(2, 200, 1, helpers.Ing(300, 1)),
		helpers.NewRecipe(3, 300, 1, helpers.Ing(400, 1)),
	)
	craftAll(tables, tree, 1)
	tree.Children[0].Craft = false

	steps := services.NewStepAggregator(tables).Aggregate(tree)

	require.Len(t, steps, 1)
	assert.Equal(t, 100, steps[0].ID)
	assert.False(t, steps[0].HasCraftedComponents)
}

func TestStepAggregator_LeafTargetHasNoSteps(t *testing.T) {
	tree := crafting.NewTreeFromRecipe(crafting.NewLeafRecipe(5, crafting.KindItem, 1))

	steps := services.NewStepAggregator(nil).Aggregate(tree)

	assert.Empty(t, steps)
}
