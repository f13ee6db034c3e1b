package services

import (
	"sort"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Materializer expands flat recipes into nested recipe trees.
//
// Cycle detection uses a visited set copied per branch, so sibling branches never see
// each other's ancestors. A revisited id becomes a raw leaf flagged Cyclic and
// produces one circular dependency warning per id. Expansions that completed without
// hitting a cycle are memoized in the RecipeCache; truncated ones are not, because
// their shape depends on the path that reached them.
type Materializer struct {
	byOutputID  map[int]*crafting.Recipe
	byUpgradeID map[int]*crafting.Recipe
	decorations map[int]int
	tables      *crafting.ExceptionTables
	cache       *RecipeCache
}

// NewMaterializer indexes recipes by output. When several recipes produce the same
// output the one with the lowest recipe id wins.
func NewMaterializer(
	recipes []*crafting.Recipe,
	decorations map[int]int,
	tables *crafting.ExceptionTables,
	cache *RecipeCache,
) *Materializer {
	sorted := make([]*crafting.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	m := &Materializer{
		byOutputID:  make(map[int]*crafting.Recipe),
		byUpgradeID: make(map[int]*crafting.Recipe),
		decorations: decorations,
		tables:      tables,
		cache:       cache,
	}
	if m.decorations == nil {
		m.decorations = make(map[int]int)
	}
	if m.tables == nil {
		m.tables = crafting.NewEmptyTables()
	}
	for _, r := range sorted {
		if r.OutputItemID > 0 {
			if _, exists := m.byOutputID[r.OutputItemID]; !exists {
				m.byOutputID[r.OutputItemID] = r
			}
		}
		if r.OutputUpgradeID > 0 {
			if _, exists := m.byUpgradeID[r.OutputUpgradeID]; !exists {
				m.byUpgradeID[r.OutputUpgradeID] = r
			}
		}
	}
	return m
}

// Materialize expands the recipe producing itemID. It returns nil without error
// when the item has no recipe.
func (m *Materializer) Materialize(itemID int, warnings *crafting.Warnings) (*crafting.NestedRecipe, error) {
	recipe, ok := m.byOutputID[itemID]
	if !ok {
		return nil, nil
	}
	node, _, err := m.expand(itemID, crafting.KindItem, recipe, 1, make(map[string]bool), warnings)
	return node, err
}

// expand returns the nested recipe for one node and whether it is free of cycle truncation
func (m *Materializer) expand(
	id int,
	kind crafting.ItemKind,
	recipe *crafting.Recipe,
	count int,
	visited map[string]bool,
	warnings *crafting.Warnings,
) (*crafting.NestedRecipe, bool, error) {
	if cached, ok := m.cache.Get(kind, id); ok {
		for _, upgradeID := range cached.UnresolvedUpgrades() {
			warnUnresolvedUpgrade(warnings, upgradeID)
		}
		return cached.WithCount(count), true, nil
	}
	if err := recipe.Validate(); err != nil {
		return nil, false, err
	}

	branch := make(map[string]bool, len(visited)+1)
	for k := range visited {
		branch[k] = true
	}
	branch[recipeKey(kind, id)] = true

	node := &crafting.NestedRecipe{
		ID:          id,
		Kind:        kind,
		Count:       1,
		OutputBatch: recipe.OutputItemCount,
		RecipeID:    recipe.ID,
		Disciplines: recipe.Disciplines,
		MinRating:   recipe.MinRating,
		Merchant:    recipe.Merchant,
		DailyCap:    recipe.DailyCap,
		WeeklyCap:   recipe.WeeklyCap,
		Components:  make([]*crafting.NestedRecipe, 0, len(recipe.Ingredients)),
	}
	if node.OutputBatch < 1 {
		node.OutputBatch = 1
	}

	complete := true
	for _, ingredient := range recipe.Ingredients {
		child, childComplete, err := m.resolveIngredient(id, ingredient, branch, warnings)
		if err != nil {
			return nil, false, err
		}
		complete = complete && childComplete
		node.Components = append(node.Components, child)
	}

	if complete {
		m.cache.Set(kind, id, node)
	}
	return node.WithCount(count), complete, nil
}

func (m *Materializer) resolveIngredient(
	parentID int,
	ingredient crafting.Ingredient,
	visited map[string]bool,
	warnings *crafting.Warnings,
) (*crafting.NestedRecipe, bool, error) {
	id, kind := ingredient.ID, ingredient.Kind
	var recipe *crafting.Recipe

	switch kind {
	case crafting.KindCurrency:
		return crafting.NewLeafRecipe(id, kind, ingredient.Count), true, nil

	case crafting.KindGuildUpgrade:
		if upgradeRecipe, ok := m.byUpgradeID[id]; ok {
			recipe = upgradeRecipe
			break
		}
		itemID, ok := m.decorations[id]
		if !ok {
			warnUnresolvedUpgrade(warnings, id)
			leaf := crafting.NewLeafRecipe(id, kind, ingredient.Count)
			leaf.Unresolved = true
			return leaf, true, nil
		}
		id, kind = itemID, crafting.KindItem
		recipe = m.byOutputID[id]

	default:
		kind = crafting.KindItem
		recipe = m.byOutputID[id]
	}

	if recipe == nil {
		return crafting.NewLeafRecipe(id, kind, ingredient.Count), true, nil
	}

	if visited[recipeKey(kind, id)] {
		warnings.Add(crafting.WarningCircularDependency, id,
			"circular dependency detected for %d, kept as a raw ingredient", id)
		leaf := crafting.NewLeafRecipe(id, kind, ingredient.Count)
		leaf.Cyclic = true
		return leaf, false, nil
	}

	// The two condensed ley line essences convert into each other; neither expands
	// inside the other.
	if m.tables.IsLeyLinePair(parentID, id) {
		return crafting.NewLeafRecipe(id, kind, ingredient.Count), true, nil
	}

	return m.expand(id, kind, recipe, ingredient.Count, visited, warnings)
}

func warnUnresolvedUpgrade(warnings *crafting.Warnings, upgradeID int) {
	warnings.Add(crafting.WarningUnresolvedUpgrade, upgradeID,
		"guild upgrade %d has no recipe and no decoration item", upgradeID)
}
