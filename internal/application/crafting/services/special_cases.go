package services

import (
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/pkg/utils"
)

// ApplyEfficiencyTiers rewrites tiered refinement recipes for the selected station
// upgrade. The first ingredient's count becomes count / (tier*2) with a per-ingredient
// floor, and the output batch doubles unless a halving rule matches.
// Must run before quantity propagation.
func ApplyEfficiencyTiers(root *crafting.TreeNode, tiers map[int]int, tables *crafting.ExceptionTables) {
	if root == nil || len(tiers) == 0 || tables == nil {
		return
	}
	root.Walk(func(node *crafting.TreeNode, _ int) bool {
		tier := tiers[node.ID]
		if tier <= 0 || node.IsLeaf() || !tables.IsTieredRecipe(node.ID) {
			return true
		}
		if maxTier := tables.EfficiencyTiers.MaxTier; maxTier > 0 && tier > maxTier {
			tier = maxTier
		}

		first := node.Children[0]
		first.QuantityPerParent = utils.Max(first.QuantityPerParent/(tier*2), tables.IngredientFloor(first.ID))

		if tables.HalvesBatch(first.ID, tier) {
			node.OutputBatch = utils.Max(1, node.OutputBatch/2)
		} else {
			node.OutputBatch *= 2
		}
		return true
	})
}

// ApplyForceBuy marks user-forced purchases before the first propagation pass.
// The root is always crafted and is never forced.
func ApplyForceBuy(root *crafting.TreeNode, forceBuy map[int]bool) {
	root.Walk(func(node *crafting.TreeNode, depth int) bool {
		node.ForcedBuy = depth > 0 && forceBuy[node.ID]
		node.Craft = !node.ForcedBuy
		return true
	})
}

// RefineCraftFlags clears the craft flag of every node that has nothing to craft:
// leaves, forced purchases and nodes fully covered by inventory. The root keeps
// craft=true whenever it has a recipe. Returns true if any flag changed.
func RefineCraftFlags(root *crafting.TreeNode) bool {
	changed := false
	root.Walk(func(node *crafting.TreeNode, depth int) bool {
		craft := node.Craft && node.UsedQuantity != 0 && !node.IsLeaf() && !node.ForcedBuy
		if depth == 0 {
			craft = !node.IsLeaf()
		}
		if craft != node.Craft {
			node.Craft = craft
			changed = true
		}
		return true
	})
	return changed
}

// CapBreakdown totals the crafted quantity of every capped item in the tree: recipes
// with a daily or weekly purchase cap and items on the daily cooldown list. Exceeding
// a daily cap adds a warning.
func CapBreakdown(root *crafting.TreeNode, tables *crafting.ExceptionTables, warnings *crafting.Warnings) map[int]int {
	breakdown := make(map[int]int)
	if root == nil {
		return breakdown
	}
	dailyCaps := make(map[int]int)
	batches := make(map[int]int)

	root.Walk(func(node *crafting.TreeNode, _ int) bool {
		if node.Kind == crafting.KindCurrency || node.IsLeaf() || !node.Craft {
			return false
		}
		daily := node.DailyCap
		if daily == 0 && tables != nil && tables.IsDailyCooldown(node.ID) {
			daily = 1
		}
		if daily > 0 || node.WeeklyCap > 0 {
			breakdown[node.ID] += node.UsedQuantity
			dailyCaps[node.ID] = daily
			batches[node.ID] = node.OutputBatch
		}
		return true
	})

	for id, qty := range breakdown {
		daily := dailyCaps[id]
		if daily == 0 {
			continue
		}
		if crafts := utils.CeilDiv(qty, batches[id]); crafts > daily {
			warnings.Add(crafting.WarningCapExceeded, id,
				"item %d needs %d crafts but is capped at %d per day", id, crafts, daily)
		}
	}
	return breakdown
}
