package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

func newMaterializer(recipes []*crafting.Recipe, decorations map[int]int, tables *crafting.ExceptionTables) (*services.Materializer, *services.RecipeCache) {
	cache := services.NewRecipeCache(0, time.Minute)
	if tables == nil {
		tables = helpers.NewTestTables()
	}
	return services.NewMaterializer(recipes, decorations, tables, cache), cache
}

func TestMaterializer_ExpandsNestedRecipes(t *testing.T) {
	// Arrange
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 100, 1, helpers.Ing(200, 2), helpers.Cur(1, 50)),
		helpers.NewRecipe(2, 200, 5, helpers.Ing(300, 3)),
	}
	m, _ := newMaterializer(recipes, nil, nil)

	// Act
	root, err := m.Materialize(100, crafting.NewWarnings())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, 100, root.ID)
	require.Len(t, root.Components, 2)

	intermediate := root.Components[0]
	assert.Equal(t, 200, intermediate.ID)
	assert.Equal(t, 2, intermediate.Count)
	assert.Equal(t, 5, intermediate.OutputBatch)
	require.Len(t, intermediate.Components, 1)
	assert.True(t, intermediate.Components[0].IsLeaf())

	coin := root.Components[1]
	assert.Equal(t, crafting.KindCurrency, coin.Kind)
	assert.True(t, coin.IsLeaf())
	assert.Equal(t, []int{100, 200, 300}, root.ItemIDs())
}

func TestMaterializer_NoRecipeReturnsNil(t *testing.T) {
	m, _ := newMaterializer(nil, nil, nil)

	root, err := m.Materialize(42, crafting.NewWarnings())

	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestMaterializer_CycleBecomesLeafWithSingleWarning(t *testing.T) {
	// Arrange - A needs B and C, B needs A, C needs B: A is reached twice through cycles
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Ing(20, 1), helpers.Ing(30, 1)),
		helpers.NewRecipe(2, 20, 1, helpers.Ing(10, 1)),
		helpers.NewRecipe(3, 30, 1, helpers.Ing(20, 1)),
	}
	m, _ := newMaterializer(recipes, nil, nil)
	warnings := crafting.NewWarnings()

	// Act
	root, err := m.Materialize(10, warnings)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, warnings.Count(crafting.WarningCircularDependency))

	b := root.Components[0]
	require.Len(t, b.Components, 1)
	assert.True(t, b.Components[0].Cyclic)
	assert.True(t, b.Components[0].IsLeaf())

	cb := root.Components[1].Components[0]
	assert.Equal(t, 20, cb.ID)
	assert.True(t, cb.Components[0].Cyclic)
}

func TestMaterializer_SelfReference(t *testing.T) {
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Ing(10, 2), helpers.Ing(11, 1)),
	}
	m, _ := newMaterializer(recipes, nil, nil)
	warnings := crafting.NewWarnings()

	root, err := m.Materialize(10, warnings)

	require.NoError(t, err)
	require.Len(t, root.Components, 2)
	assert.True(t, root.Components[0].Cyclic)
	assert.Equal(t, 1, warnings.Count(crafting.WarningCircularDependency))
}

func TestMaterializer_SiblingBranchesDoNotShareVisitedSet(t *testing.T) {
	// Arrange - D is reached through two siblings; it is not a cycle
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Ing(20, 1), helpers.Ing(30, 1)),
		helpers.NewRecipe(2, 20, 1, helpers.Ing(40, 1)),
		helpers.NewRecipe(3, 30, 1, helpers.Ing(40, 1)),
		helpers.NewRecipe(4, 40, 1, helpers.Ing(50, 1)),
	}
	m, _ := newMaterializer(recipes, nil, nil)
	warnings := crafting.NewWarnings()

	// Act
	root, err := m.Materialize(10, warnings)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, warnings.Len())
	for _, branch := range root.Components {
		d := branch.Components[0]
		assert.False(t, d.Cyclic)
		assert.False(t, d.IsLeaf())
	}
}

func TestMaterializer_LeyLinePairIsNotExpanded(t *testing.T) {
	// Arrange
	tables := helpers.NewTestTables()
	tables.LeyLineEssencePair = []int{70, 71}
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 70, 1, helpers.Ing(71, 1), helpers.Ing(5, 1)),
		helpers.NewRecipe(2, 71, 1, helpers.Ing(70, 1), helpers.Ing(6, 1)),
	}
	m, _ := newMaterializer(recipes, nil, tables)
	warnings := crafting.NewWarnings()

	// Act
	root, err := m.Materialize(70, warnings)

	// Assert
	require.NoError(t, err)
	other := root.Components[0]
	assert.Equal(t, 71, other.ID)
	assert.True(t, other.IsLeaf())
	assert.False(t, other.Cyclic)
	assert.Equal(t, 0, warnings.Count(crafting.WarningCircularDependency))
}

func TestMaterializer_GuildUpgrades(t *testing.T) {
	// Arrange - upgrade 900 maps to decoration item 60, upgrade 901 has nothing
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Upgrade(900, 2), helpers.Upgrade(901, 1)),
		helpers.NewRecipe(2, 60, 1, helpers.Ing(61, 4)),
	}
	m, _ := newMaterializer(recipes, map[int]int{900: 60}, nil)
	warnings := crafting.NewWarnings()

	// Act
	root, err := m.Materialize(10, warnings)

	// Assert
	require.NoError(t, err)
	decoration := root.Components[0]
	assert.Equal(t, 60, decoration.ID)
	assert.Equal(t, crafting.KindItem, decoration.Kind)
	assert.Equal(t, 2, decoration.Count)
	assert.False(t, decoration.IsLeaf())

	unresolved := root.Components[1]
	assert.True(t, unresolved.Unresolved)
	assert.Equal(t, crafting.KindGuildUpgrade, unresolved.Kind)
	assert.Equal(t, 1, warnings.Count(crafting.WarningUnresolvedUpgrade))
}

func TestMaterializer_GuildUpgradeRecipe(t *testing.T) {
	upgradeRecipe := helpers.NewRecipe(2, 0, 1, helpers.Ing(61, 3))
	upgradeRecipe.OutputUpgradeID = 900
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Upgrade(900, 1)),
		upgradeRecipe,
	}
	m, _ := newMaterializer(recipes, nil, nil)

	root, err := m.Materialize(10, crafting.NewWarnings())

	require.NoError(t, err)
	upgrade := root.Components[0]
	assert.Equal(t, crafting.KindGuildUpgrade, upgrade.Kind)
	assert.Equal(t, 900, upgrade.ID)
	require.Len(t, upgrade.Components, 1)
	assert.Equal(t, 61, upgrade.Components[0].ID)
}

func TestMaterializer_MalformedRecipeFails(t *testing.T) {
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 0, helpers.Ing(11, 1)),
	}
	m, _ := newMaterializer(recipes, nil, nil)

	_, err := m.Materialize(10, crafting.NewWarnings())

	require.Error(t, err)
	var malformed *crafting.ErrMalformedRecipe
	assert.True(t, errors.As(err, &malformed))
	assert.True(t, errors.Is(err, crafting.ErrInvalidInput))
}

func TestMaterializer_MemoizesOnlyCompleteExpansions(t *testing.T) {
	// Arrange - 10 -> 20 -> 10 cycle, plus an acyclic 30 -> 40
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Ing(20, 1), helpers.Ing(30, 1)),
		helpers.NewRecipe(2, 20, 1, helpers.Ing(10, 1)),
		helpers.NewRecipe(3, 30, 1, helpers.Ing(40, 1)),
	}
	m, cache := newMaterializer(recipes, nil, nil)

	// Act
	_, err := m.Materialize(10, crafting.NewWarnings())

	// Assert
	require.NoError(t, err)
	_, ok := cache.Get(crafting.KindItem, 30)
	assert.True(t, ok)
	_, ok = cache.Get(crafting.KindItem, 20)
	assert.False(t, ok)
	_, ok = cache.Get(crafting.KindItem, 10)
	assert.False(t, ok)
}

func TestMaterializer_CachedExpansionKeepsRequestedCount(t *testing.T) {
	recipes := []*crafting.Recipe{
		helpers.NewRecipe(1, 10, 1, helpers.Ing(30, 3)),
		helpers.NewRecipe(2, 11, 1, helpers.Ing(30, 7)),
		helpers.NewRecipe(3, 30, 1, helpers.Ing(40, 1)),
	}
	m, _ := newMaterializer(recipes, nil, nil)

	first, err := m.Materialize(10, crafting.NewWarnings())
	require.NoError(t, err)
	second, err := m.Materialize(11, crafting.NewWarnings())
	require.NoError(t, err)

	assert.Equal(t, 3, first.Components[0].Count)
	assert.Equal(t, 7, second.Components[0].Count)
}
