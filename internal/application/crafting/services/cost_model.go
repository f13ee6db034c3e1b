package services

import (
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// pricePick selects the value a child contributes to its parent's craft cost
type pricePick func(node *crafting.TreeNode) int

// sumChildren is the recursive cost step shared by the auto-decide resolver and
// the interactive recalculator: a parent's craft cost is the sum of what each
// child contributes under the active valuation.
func sumChildren(children []*crafting.TreeNode, pick pricePick) int {
	total := 0
	for _, child := range children {
		total += pick(child)
	}
	return total
}

func pickDecision(node *crafting.TreeNode) int { return node.DecisionPrice }

func pickResult(node *crafting.TreeNode) int { return node.ResultPrice }

// pickByMode values a child the way the user chose for it
func pickByMode(node *crafting.TreeNode) int {
	switch node.Mode {
	case crafting.ModeSell:
		return node.TotalSell
	case crafting.ModeCrafted:
		if node.IsLeaf() {
			return node.TotalBuy
		}
		return node.TotalCrafted
	default:
		return node.TotalBuy
	}
}

// fixedChildQuantity returns the hard-coded quantity of child under the fixed-ratio
// item when parentQty matches a table entry
func fixedChildQuantity(tables *crafting.ExceptionTables, parentID, parentQty, childID int) (int, bool) {
	vector, ok := tables.FixedRatioVector(parentID, parentQty)
	if !ok {
		return 0, false
	}
	qty, ok := vector[childID]
	return qty, ok
}
