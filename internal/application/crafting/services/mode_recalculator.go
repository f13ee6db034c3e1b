package services

import (
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// ModeRecalculator recomputes an explicit-override tree, where each node is valued
// by the mode the user picked for it (buy, sell or crafted).
//
// Counts here are raw proportional scaling of the root quantity: no batch rounding
// and no inventory, matching what a user toggling modes expects to see.
type ModeRecalculator struct {
	tables *crafting.ExceptionTables
}

// NewModeRecalculator creates a recalculator
func NewModeRecalculator(tables *crafting.ExceptionTables) *ModeRecalculator {
	if tables == nil {
		tables = crafting.NewEmptyTables()
	}
	return &ModeRecalculator{tables: tables}
}

// Recalculate refreshes CountTotal, TotalBuy, TotalSell, TotalCrafted and CraftedPrice
// on every node and returns the root totals
func (r *ModeRecalculator) Recalculate(root *crafting.TreeNode, globalQty int) crafting.Totals {
	r.recalculate(root, nil, globalQty)
	return crafting.Totals{
		TotalBuy:     root.TotalBuy,
		TotalSell:    root.TotalSell,
		TotalCrafted: root.TotalCrafted,
	}
}

func (r *ModeRecalculator) recalculate(node, parent *crafting.TreeNode, globalQty int) {
	switch {
	case parent == nil:
		node.CountTotal = node.QuantityPerParent * globalQty
	default:
		if qty, ok := fixedChildQuantity(r.tables, parent.ID, parent.CountTotal, node.ID); ok {
			node.CountTotal = qty
		} else {
			node.CountTotal = parent.CountTotal * node.QuantityPerParent
		}
	}

	node.TotalBuy = 0
	if node.HasBuyPrice {
		node.TotalBuy = node.BuyPriceEach * node.CountTotal
	}
	node.TotalSell = 0
	if node.HasSellPrice {
		node.TotalSell = node.SellPriceEach * node.CountTotal
	}

	if node.IsLeaf() {
		node.TotalCrafted = 0
		node.CraftedPrice = 0
		return
	}
	for _, child := range node.Children {
		r.recalculate(child, node, globalQty)
	}
	node.TotalCrafted = sumChildren(node.Children, pickByMode)
	node.CraftedPrice = float64(node.TotalCrafted) / float64(node.OutputBatch)
}

// SetMode changes the mode of every occurrence of id and returns how many nodes changed
func SetMode(root *crafting.TreeNode, id int, mode crafting.Mode) int {
	changed := 0
	for _, node := range root.FindAll(id) {
		node.Mode = mode
		changed++
	}
	return changed
}

// ApplyModes sets the mode of every occurrence of each id in modes
func ApplyModes(root *crafting.TreeNode, modes map[int]crafting.Mode) {
	if len(modes) == 0 {
		return
	}
	root.Walk(func(node *crafting.TreeNode, _ int) bool {
		if mode, ok := modes[node.ID]; ok {
			node.Mode = mode
		}
		return true
	})
}
