package services

import (
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/pkg/utils"
)

// QuantityPropagator assigns total and used quantities top-down.
//
// A node's total is rounded up to whole crafts of its output batch. Nodes below the
// root draw from the shared inventory pool (currencies never do), and only the
// remainder is crafted: children receive ceil(used / batch) crafts worth. Once a node
// is bought or fully covered by inventory, its subtree stops consuming inventory.
type QuantityPropagator struct {
	tables *crafting.ExceptionTables
}

// NewQuantityPropagator creates a propagator
func NewQuantityPropagator(tables *crafting.ExceptionTables) *QuantityPropagator {
	if tables == nil {
		tables = crafting.NewEmptyTables()
	}
	return &QuantityPropagator{tables: tables}
}

// Propagate fills TotalQuantity, UsedQuantity and DrawnFromInventory for a target
// amount. The pool is consumed; pass a fresh one per pass.
func (p *QuantityPropagator) Propagate(root *crafting.TreeNode, amount int, pool crafting.InventoryPool, ignoreInventory bool) {
	p.propagate(root, amount, 0, pool, ignoreInventory)
}

func (p *QuantityPropagator) propagate(node *crafting.TreeNode, crafts, depth int, pool crafting.InventoryPool, ignore bool) {
	total := utils.RoundUpToMultiple(crafts*node.QuantityPerParent, node.OutputBatch)
	p.assign(node, total, depth, pool, ignore)
}

func (p *QuantityPropagator) assign(node *crafting.TreeNode, total, depth int, pool crafting.InventoryPool, ignore bool) {
	node.TotalQuantity = total
	node.DrawnFromInventory = 0
	if depth > 0 && node.Kind != crafting.KindCurrency && !ignore {
		node.DrawnFromInventory = pool.Draw(node.ID, total)
	}
	node.UsedQuantity = total - node.DrawnFromInventory

	if node.IsLeaf() {
		return
	}

	childIgnore := ignore || !node.Craft || node.UsedQuantity == 0
	crafts := utils.CeilDiv(node.UsedQuantity, node.OutputBatch)
	for _, child := range node.Children {
		if qty, ok := fixedChildQuantity(p.tables, node.ID, node.UsedQuantity, child.ID); ok {
			p.assign(child, utils.RoundUpToMultiple(qty, child.OutputBatch), depth+1, pool, childIgnore)
			continue
		}
		p.propagate(child, crafts, depth+1, pool, childIgnore)
	}
}
