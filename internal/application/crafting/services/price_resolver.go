package services

import (
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// PriceResolver computes buy, sell and craft costs bottom-up and, when asked,
// decides for each node whether crafting beats buying.
//
// Two valuations are tracked per node. DecisionPrice is what the buy/craft comparison
// uses: currencies without a gold value may carry a synthetic per-unit price there.
// ResultPrice is the real gold cost and ignores synthetic prices.
type PriceResolver struct {
	tables   *crafting.ExceptionTables
	prices   map[int]*crafting.MarketPrice
	warnings *crafting.Warnings
}

// NewPriceResolver creates a resolver. A nil warnings collector silences
// missing price reports, for passes whose results are discarded.
func NewPriceResolver(
	tables *crafting.ExceptionTables,
	prices map[int]*crafting.MarketPrice,
	warnings *crafting.Warnings,
) *PriceResolver {
	if tables == nil {
		tables = crafting.NewEmptyTables()
	}
	if prices == nil {
		prices = make(map[int]*crafting.MarketPrice)
	}
	return &PriceResolver{tables: tables, prices: prices, warnings: warnings}
}

// Resolve prices the tree. With decide set, every non-forced node's craft flag is
// re-decided from the cost comparison; otherwise existing flags are honored.
func (r *PriceResolver) Resolve(root *crafting.TreeNode, decide bool) {
	r.resolve(root, decide)
}

func (r *PriceResolver) resolve(node *crafting.TreeNode, decide bool) {
	r.applyUnitPrices(node)

	node.BuyPrice = 0
	if node.HasBuyPrice {
		node.BuyPrice = node.BuyPriceEach * node.UsedQuantity
	}
	node.SellPrice = 0
	if node.HasSellPrice {
		node.SellPrice = node.SellPriceEach * node.UsedQuantity
	}
	buyDecision, canBuy := r.buyDecisionPrice(node)

	if node.IsLeaf() {
		node.Craft = false
		node.CraftPrice = 0
		node.CraftResultPrice = 0
		node.DecisionPrice = buyDecision
		node.ResultPrice = node.BuyPrice
		r.reportMissingPrice(node)
		return
	}

	for _, child := range node.Children {
		r.resolve(child, decide)
	}
	node.CraftPrice = sumChildren(node.Children, pickDecision)
	node.CraftResultPrice = sumChildren(node.Children, pickResult)

	if node.ForcedBuy {
		node.Craft = false
	} else if decide {
		node.Craft = !canBuy || node.CraftPrice < buyDecision
	}

	if node.Craft {
		node.DecisionPrice = node.CraftPrice
		node.ResultPrice = node.CraftResultPrice
		return
	}
	node.DecisionPrice = buyDecision
	node.ResultPrice = node.BuyPrice
	r.reportMissingPrice(node)
}

func (r *PriceResolver) applyUnitPrices(node *crafting.TreeNode) {
	node.BuyPriceEach, node.SellPriceEach = 0, 0
	node.HasBuyPrice, node.HasSellPrice = false, false

	if node.Kind == crafting.KindCurrency {
		if value, ok := r.tables.Currency(node.ID); ok && value.CopperPerUnit != nil {
			node.BuyPriceEach = *value.CopperPerUnit
			node.SellPriceEach = *value.CopperPerUnit
			node.HasBuyPrice, node.HasSellPrice = true, true
		}
		return
	}
	if node.Kind != crafting.KindItem {
		return
	}
	if price, ok := r.prices[node.ID]; ok && price != nil {
		node.BuyPriceEach = price.BuyPriceEach
		node.SellPriceEach = price.SellPriceEach
		node.HasBuyPrice = price.BuyPriceEach > 0
		node.HasSellPrice = price.SellPriceEach > 0
	}
}

// buyDecisionPrice returns the cost of buying the node's used quantity for the
// craft comparison, and false when it cannot be bought at all
func (r *PriceResolver) buyDecisionPrice(node *crafting.TreeNode) (int, bool) {
	if node.Kind == crafting.KindCurrency {
		if value, ok := r.tables.Currency(node.ID); ok && value.DecisionPrice != nil {
			return *value.DecisionPrice * node.UsedQuantity, true
		}
	}
	if node.HasBuyPrice {
		return node.BuyPrice, true
	}
	return 0, false
}

func (r *PriceResolver) reportMissingPrice(node *crafting.TreeNode) {
	if node.HasBuyPrice || node.UsedQuantity == 0 || node.Kind != crafting.KindItem {
		return
	}
	r.warnings.Add(crafting.WarningMissingPrice, node.ID,
		"no market price for %d, valued at zero", node.ID)
}
