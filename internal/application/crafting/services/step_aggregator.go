package services

import (
	"sort"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/pkg/utils"
)

// StepAggregator flattens a decided tree into an ordered crafting checklist.
//
// Repeated occurrences of an id merge into one step. Ordering:
//  1. the fixed-ratio item, if crafted
//  2. merchant-only purchases, sorted by merchant name
//  3. every other step, with each crafted ingredient before the steps that consume it
type StepAggregator struct {
	tables *crafting.ExceptionTables
}

// NewStepAggregator creates an aggregator
func NewStepAggregator(tables *crafting.ExceptionTables) *StepAggregator {
	if tables == nil {
		tables = crafting.NewEmptyTables()
	}
	return &StepAggregator{tables: tables}
}

type stepEdge struct {
	parent int
	child  int
}

// Aggregate builds the checklist for a tree whose quantities and craft flags are final
func (a *StepAggregator) Aggregate(root *crafting.TreeNode) []*crafting.CraftingStep {
	steps := make([]*crafting.CraftingStep, 0)
	index := make(map[int]*crafting.CraftingStep)
	edges := make(map[stepEdge]bool)

	if root == nil {
		return steps
	}

	root.Walk(func(node *crafting.TreeNode, _ int) bool {
		if !isCraftedStep(node) {
			return false
		}
		step, exists := index[node.ID]
		if !exists {
			step = &crafting.CraftingStep{
				ID:          node.ID,
				Kind:        node.Kind,
				Name:        node.Name,
				OutputBatch: node.OutputBatch,
				Components:  make([]crafting.StepComponent, 0, len(node.Children)),
				Disciplines: node.Disciplines,
				MinRating:   node.MinRating,
			}
			if node.Merchant != nil {
				step.MerchantName = node.Merchant.Name
			}
			index[node.ID] = step
			steps = append(steps, step)
		}
		step.Quantity += node.UsedQuantity
		for _, child := range node.Children {
			step.AddComponent(child.ID, child.Kind, child.TotalQuantity)
			if isCraftedStep(child) {
				step.HasCraftedComponents = true
				edges[stepEdge{parent: node.ID, child: child.ID}] = true
			}
		}
		return true
	})

	// Pre-order puts parents first; reversing gives the natural bottom-up order
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	for _, step := range steps {
		step.Crafts = utils.CeilDiv(step.Quantity, step.OutputBatch)
	}

	heights := stepHeights(edges, len(steps))
	sort.SliceStable(steps, func(i, j int) bool {
		return heights[steps[i].ID] < heights[steps[j].ID]
	})

	fixed := make([]*crafting.CraftingStep, 0, 1)
	merchant := make([]*crafting.CraftingStep, 0)
	rest := make([]*crafting.CraftingStep, 0, len(steps))
	for _, step := range steps {
		switch {
		case a.tables.IsFixedRatioItem(step.ID):
			fixed = append(fixed, step)
		case step.IsMerchantOnly():
			merchant = append(merchant, step)
		default:
			rest = append(rest, step)
		}
	}
	sort.SliceStable(merchant, func(i, j int) bool {
		return merchant[i].MerchantName < merchant[j].MerchantName
	})

	result := make([]*crafting.CraftingStep, 0, len(steps))
	result = append(result, fixed...)
	result = append(result, merchant...)
	return append(result, rest...)
}

func isCraftedStep(node *crafting.TreeNode) bool {
	return node.Craft && !node.IsLeaf() && node.Kind != crafting.KindCurrency && node.UsedQuantity > 0
}

// stepHeights computes each step's longest chain of crafted ingredients below it.
// Relaxation is bounded so a cyclic edge set still terminates deterministically.
func stepHeights(edges map[stepEdge]bool, stepCount int) map[int]int {
	sorted := make([]stepEdge, 0, len(edges))
	for edge := range edges {
		sorted = append(sorted, edge)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].parent != sorted[j].parent {
			return sorted[i].parent < sorted[j].parent
		}
		return sorted[i].child < sorted[j].child
	})

	heights := make(map[int]int)
	for round := 0; round <= stepCount; round++ {
		changed := false
		for _, edge := range sorted {
			if h := heights[edge.child] + 1; h > heights[edge.parent] {
				heights[edge.parent] = h
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return heights
}
