package cli

import (
	"fmt"
	"strings"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// TreeFormatter renders ingredient trees and crafting plans for the terminal
type TreeFormatter struct {
	useColors bool
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(useColors bool) *TreeFormatter {
	return &TreeFormatter{useColors: useColors}
}

// FormatTree renders an auto-decided tree: what to buy or craft and at which cost
func (f *TreeFormatter) FormatTree(root *crafting.TreeNode) string {
	if root == nil {
		return "(empty tree)"
	}

	var builder strings.Builder
	f.formatNode(&builder, root, "", true, true, f.describeDecision)
	return builder.String()
}

// FormatModeTree renders a tree under interactive per-node modes
func (f *TreeFormatter) FormatModeTree(root *crafting.TreeNode) string {
	if root == nil {
		return "(empty tree)"
	}

	var builder strings.Builder
	f.formatNode(&builder, root, "", true, true, f.describeMode)
	return builder.String()
}

// formatNode recursively formats a node and its children
func (f *TreeFormatter) formatNode(
	builder *strings.Builder,
	node *crafting.TreeNode,
	prefix string,
	isLast, isRoot bool,
	describe func(*crafting.TreeNode) string,
) {
	var linePrefix string
	if isRoot {
		linePrefix = ""
	} else if isLast {
		linePrefix = prefix + "└── "
	} else {
		linePrefix = prefix + "├── "
	}

	builder.WriteString(linePrefix)
	builder.WriteString(describe(node))
	builder.WriteString("\n")

	if len(node.Children) == 0 {
		return
	}
	var childPrefix string
	if isRoot {
		childPrefix = ""
	} else if isLast {
		childPrefix = prefix + "    "
	} else {
		childPrefix = prefix + "│   "
	}
	for i, child := range node.Children {
		f.formatNode(builder, child, childPrefix, i == len(node.Children)-1, false, describe)
	}
}

func (f *TreeFormatter) describeDecision(node *crafting.TreeNode) string {
	method := "BUY"
	color := "\033[32m" // Green
	if node.Craft && !node.IsLeaf() {
		method = "CRAFT"
		color = "\033[33m" // Yellow
	}

	line := fmt.Sprintf("%s × %s [%s%s%s]",
		formatQuantity(node.UsedQuantity), nodeLabel(node), f.color(color), method, f.colorReset())

	if node.DrawnFromInventory > 0 {
		line += fmt.Sprintf(" (own %s)", formatQuantity(node.DrawnFromInventory))
	}
	switch {
	case node.UsedQuantity == 0:
	case node.Kind == crafting.KindItem && !node.HasBuyPrice && (!node.Craft || node.IsLeaf()):
		line += " no price"
	default:
		line += " " + formatCoins(node.ResultPrice)
	}
	if node.Cyclic {
		line += " (cycle)"
	}
	return line
}

func (f *TreeFormatter) describeMode(node *crafting.TreeNode) string {
	mode := node.Mode
	if mode == "" {
		mode = crafting.ModeBuy
	}
	line := fmt.Sprintf("%s × %s [%s]", formatQuantity(node.CountTotal), nodeLabel(node), strings.ToUpper(string(mode)))

	parts := []string{}
	if node.HasBuyPrice {
		parts = append(parts, "buy "+formatCoins(node.TotalBuy))
	}
	if node.HasSellPrice {
		parts = append(parts, "sell "+formatCoins(node.TotalSell))
	}
	if !node.IsLeaf() {
		parts = append(parts, "crafted "+formatCoins(node.TotalCrafted))
	}
	if len(parts) > 0 {
		line += " " + strings.Join(parts, ", ")
	}
	return line
}

func nodeLabel(node *crafting.TreeNode) string {
	if node.Name != "" {
		return fmt.Sprintf("%s (%d)", node.Name, node.ID)
	}
	return fmt.Sprintf("%s %d", node.Kind, node.ID)
}

func (f *TreeFormatter) color(code string) string {
	if !f.useColors {
		return ""
	}
	return code
}

// colorReset returns ANSI reset code
func (f *TreeFormatter) colorReset() string {
	if !f.useColors {
		return ""
	}
	return "\033[0m"
}

// FormatTreeSummary creates a compact summary of the tree
func (f *TreeFormatter) FormatTreeSummary(root *crafting.TreeNode) string {
	if root == nil {
		return "No ingredient tree"
	}

	buyCount, craftCount := 0, 0
	root.Walk(func(node *crafting.TreeNode, _ int) bool {
		if node.Craft && !node.IsLeaf() {
			craftCount++
		} else {
			buyCount++
		}
		return true
	})

	return fmt.Sprintf("Tree: %d nodes (%d BUY, %d CRAFT), depth=%d",
		root.CountNodes(), buyCount, craftCount, root.TotalDepth())
}

// FormatTotals renders the three plan totals
func (f *TreeFormatter) FormatTotals(totals crafting.Totals) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Buy outright:  %s\n", formatCoins(totals.TotalBuy)))
	builder.WriteString(fmt.Sprintf("Sell value:    %s\n", formatCoins(totals.TotalSell)))
	builder.WriteString(fmt.Sprintf("Plan cost:     %s\n", formatCoins(totals.TotalCrafted)))
	return builder.String()
}

// FormatSteps renders the ordered crafting checklist. Component names are looked up in tree.
func (f *TreeFormatter) FormatSteps(steps []*crafting.CraftingStep, tree *crafting.TreeNode) string {
	if len(steps) == 0 {
		return "Nothing to craft: buy the item directly.\n"
	}
	names := nameIndex(tree)

	var builder strings.Builder
	for i, step := range steps {
		where := strings.Join(step.Disciplines, "/")
		if step.MerchantName != "" {
			where = "from " + step.MerchantName
		}
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", step.Kind, step.ID)
		}
		builder.WriteString(fmt.Sprintf("%2d. Craft %s × %s (%s crafts) %s\n",
			i+1, formatQuantity(step.Quantity), name, formatQuantity(step.Crafts), where))
		for _, component := range step.Components {
			builder.WriteString(fmt.Sprintf("      - %s × %s\n",
				formatQuantity(component.Quantity), lookupName(names, component.Kind, component.ID)))
		}
	}
	return builder.String()
}

// FormatCaps renders the purchase-capped quantities
func (f *TreeFormatter) FormatCaps(caps map[int]int, ids []int, tree *crafting.TreeNode) string {
	if len(caps) == 0 {
		return "No purchase-capped ingredients.\n"
	}
	names := nameIndex(tree)

	var builder strings.Builder
	for _, id := range ids {
		builder.WriteString(fmt.Sprintf("%s × %s\n", formatQuantity(caps[id]), lookupName(names, crafting.KindItem, id)))
	}
	return builder.String()
}

func nameKey(kind crafting.ItemKind, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func nameIndex(tree *crafting.TreeNode) map[string]string {
	names := make(map[string]string)
	if tree == nil {
		return names
	}
	tree.Walk(func(node *crafting.TreeNode, _ int) bool {
		names[nameKey(node.Kind, node.ID)] = nodeLabel(node)
		return true
	})
	return names
}

func lookupName(names map[string]string, kind crafting.ItemKind, id int) string {
	if name, ok := names[nameKey(kind, id)]; ok {
		return name
	}
	return fmt.Sprintf("%s %d", kind, id)
}
