package crafting

// NestedRecipe is a materialized recipe: an ingredient with its own recipe resolved into
// nested components. Instances are memoized and shared, so they must never be mutated
// after materialization. Per-request state lives on TreeNode.
type NestedRecipe struct {
	ID          int
	Kind        ItemKind
	Count       int // units required per craft of the parent
	OutputBatch int // units produced by one craft (1 for leaves)
	RecipeID    int
	Disciplines []string
	MinRating   int
	Merchant    *Merchant
	DailyCap    int
	WeeklyCap   int
	Components  []*NestedRecipe

	// Cyclic marks an ingredient kept as a raw reference because expanding it would loop
	Cyclic bool

	// Unresolved marks a guild upgrade with neither a recipe nor a decoration substitute
	Unresolved bool
}

// NewLeafRecipe creates a non-craftable leaf for an ingredient reference
func NewLeafRecipe(id int, kind ItemKind, count int) *NestedRecipe {
	return &NestedRecipe{
		ID:          id,
		Kind:        kind,
		Count:       count,
		OutputBatch: 1,
		Components:  make([]*NestedRecipe, 0),
	}
}

// IsLeaf returns true if nothing can be crafted below this node
func (n *NestedRecipe) IsLeaf() bool {
	return len(n.Components) == 0
}

// WithCount returns a shallow copy bound to a different per-parent count.
// Components are shared with the receiver.
func (n *NestedRecipe) WithCount(count int) *NestedRecipe {
	cp := *n
	cp.Count = count
	return &cp
}

// UnresolvedUpgrades returns the ids of unresolved guild upgrade leaves in the expansion
func (n *NestedRecipe) UnresolvedUpgrades() []int {
	result := make([]int, 0)
	var walk func(node *NestedRecipe)
	walk = func(node *NestedRecipe) {
		if node.Unresolved {
			result = append(result, node.ID)
		}
		for _, c := range node.Components {
			walk(c)
		}
	}
	walk(n)
	return result
}

// ItemIDs returns every distinct item id in the expansion, root first.
// Currencies and guild upgrades live in separate id spaces and are skipped.
func (n *NestedRecipe) ItemIDs() []int {
	seen := make(map[int]bool)
	result := make([]int, 0)
	var walk func(node *NestedRecipe)
	walk = func(node *NestedRecipe) {
		if node.Kind == KindItem && !seen[node.ID] {
			seen[node.ID] = true
			result = append(result, node.ID)
		}
		for _, c := range node.Components {
			walk(c)
		}
	}
	walk(n)
	return result
}
