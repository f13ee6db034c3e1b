package crafting

import "strings"

// Mode is how a parent's crafted total values this node when a user overrides it
type Mode string

const (
	ModeBuy     Mode = "buy"
	ModeSell    Mode = "sell"
	ModeCrafted Mode = "crafted"
)

// ParseMode parses a user supplied mode, returning false for unknown values
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBuy:
		return ModeBuy, true
	case ModeSell:
		return ModeSell, true
	case ModeCrafted:
		return ModeCrafted, true
	}
	return "", false
}

// TreeNode is the per-computation, decision-bearing unit of an ingredient tree.
// It is a plain record so it can cross the worker boundary as JSON; all behavior
// lives in free functions of the services package.
type TreeNode struct {
	ID                int      `json:"id"`
	Kind              ItemKind `json:"kind"`
	Name              string   `json:"name,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	Rarity            string   `json:"rarity,omitempty"`
	RecipeID          int      `json:"recipeId,omitempty"`
	QuantityPerParent int      `json:"quantityPerParent"`
	OutputBatch       int      `json:"outputBatch"`

	// Quantities (auto-decide mode)
	TotalQuantity      int `json:"totalQuantity"`
	UsedQuantity       int `json:"usedQuantity"`
	DrawnFromInventory int `json:"drawnFromInventory"`

	// Prices in copper
	BuyPriceEach       int  `json:"buyPriceEach"`
	SellPriceEach      int  `json:"sellPriceEach"`
	HasBuyPrice        bool `json:"hasBuyPrice"`
	HasSellPrice       bool `json:"hasSellPrice"`
	BuyPrice           int  `json:"buyPrice"`
	SellPrice          int  `json:"sellPrice"`
	CraftPrice         int  `json:"craftPrice"`
	CraftResultPrice   int  `json:"craftResultPrice"`
	DecisionPrice      int  `json:"decisionPrice"`
	ResultPrice        int  `json:"resultPrice"`
	Craft              bool `json:"craft"`
	ForcedBuy          bool `json:"forcedBuy,omitempty"`

	// Recipe metadata used by step ordering and caps
	Disciplines []string  `json:"disciplines,omitempty"`
	MinRating   int       `json:"minRating,omitempty"`
	Merchant    *Merchant `json:"merchant,omitempty"`
	DailyCap    int       `json:"dailyCap,omitempty"`
	WeeklyCap   int       `json:"weeklyCap,omitempty"`
	Cyclic      bool      `json:"cyclic,omitempty"`

	// Interactive (explicit override) mode
	Mode         Mode    `json:"modeForParentCrafted,omitempty"`
	CountTotal   int     `json:"countTotal"`
	TotalBuy     int     `json:"total_buy"`
	TotalSell    int     `json:"total_sell"`
	TotalCrafted int     `json:"total_crafted"`
	CraftedPrice float64 `json:"crafted_price"`

	Children []*TreeNode `json:"children"`
}

// NewTreeFromRecipe creates a fresh tree for one computation from a materialized recipe.
// The root is bound to a per-parent quantity of one.
func NewTreeFromRecipe(recipe *NestedRecipe) *TreeNode {
	root := newNode(recipe)
	root.QuantityPerParent = 1
	return root
}

func newNode(recipe *NestedRecipe) *TreeNode {
	node := &TreeNode{
		ID:                recipe.ID,
		Kind:              recipe.Kind,
		RecipeID:          recipe.RecipeID,
		QuantityPerParent: recipe.Count,
		OutputBatch:       recipe.OutputBatch,
		Disciplines:       recipe.Disciplines,
		MinRating:         recipe.MinRating,
		Merchant:          recipe.Merchant,
		DailyCap:          recipe.DailyCap,
		WeeklyCap:         recipe.WeeklyCap,
		Cyclic:            recipe.Cyclic,
		Craft:             true,
		Mode:              ModeBuy,
		Children:          make([]*TreeNode, 0, len(recipe.Components)),
	}
	if node.OutputBatch < 1 {
		node.OutputBatch = 1
	}
	for _, component := range recipe.Components {
		node.Children = append(node.Children, newNode(component))
	}
	return node
}

// IsLeaf returns true if the node has no ingredients
func (n *TreeNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits every node depth-first (pre-order). Returning false skips the subtree.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(node *TreeNode, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// FindAll returns every occurrence of an id in the tree
func (n *TreeNode) FindAll(id int) []*TreeNode {
	result := make([]*TreeNode, 0)
	n.Walk(func(node *TreeNode, _ int) bool {
		if node.ID == id {
			result = append(result, node)
		}
		return true
	})
	return result
}

// CountNodes returns the number of nodes including repeated occurrences
func (n *TreeNode) CountNodes() int {
	count := 0
	n.Walk(func(*TreeNode, int) bool {
		count++
		return true
	})
	return count
}

// TotalDepth returns the maximum depth of the tree from this node
func (n *TreeNode) TotalDepth() int {
	if n.IsLeaf() {
		return 1
	}

	maxChildDepth := 0
	for _, child := range n.Children {
		if d := child.TotalDepth(); d > maxChildDepth {
			maxChildDepth = d
		}
	}
	return maxChildDepth + 1
}

// Clone returns a deep copy
func (n *TreeNode) Clone() *TreeNode {
	cp := *n
	cp.Children = make([]*TreeNode, len(n.Children))
	for i, child := range n.Children {
		cp.Children[i] = child.Clone()
	}
	return &cp
}

// Rehydrate restores the defaults a decoded snapshot may lack. Snapshots carry no
// behavior, so this is the only step needed before running algorithms on them.
func Rehydrate(root *TreeNode) error {
	if root == nil {
		return &ErrInvalidSnapshot{Reason: "nil tree"}
	}
	var err error
	root.Walk(func(node *TreeNode, depth int) bool {
		if err != nil {
			return false
		}
		if node.ID < 1 {
			err = &ErrInvalidSnapshot{Reason: "node without id"}
			return false
		}
		if node.OutputBatch < 1 {
			node.OutputBatch = 1
		}
		if node.QuantityPerParent < 1 {
			node.QuantityPerParent = 1
		}
		if node.Kind == "" {
			node.Kind = KindItem
		}
		if _, ok := ParseMode(string(node.Mode)); !ok {
			node.Mode = ModeBuy
		}
		if node.Children == nil {
			node.Children = make([]*TreeNode, 0)
		}
		for _, child := range node.Children {
			if child == nil {
				err = &ErrInvalidSnapshot{Reason: "nil child"}
				return false
			}
		}
		return true
	})
	return err
}
