package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// maxFlagRounds bounds the second-round propagation. Refinement only ever clears
// craft flags, so the loop settles long before this.
const maxFlagRounds = 8

// CalculationRequest is the input of one auto-decide computation
type CalculationRequest struct {
	ItemID          int
	Quantity        int
	Inventory       map[int]int
	ForceBuy        []int
	EfficiencyTiers map[int]int
	ValueOwnItems   bool
}

// CalculationResult is everything the engine exposes for one computation
type CalculationResult struct {
	Tree         *crafting.TreeNode       `json:"tree"`
	Totals       crafting.Totals          `json:"totals"`
	Steps        []*crafting.CraftingStep `json:"steps"`
	CapBreakdown map[int]int              `json:"capBreakdown"`
	Warnings     []crafting.Warning       `json:"warnings"`
}

// Clone returns a deep copy
func (r *CalculationResult) Clone() *CalculationResult {
	cp := &CalculationResult{
		Totals:       r.Totals,
		Steps:        make([]*crafting.CraftingStep, len(r.Steps)),
		CapBreakdown: make(map[int]int, len(r.CapBreakdown)),
		Warnings:     append([]crafting.Warning(nil), r.Warnings...),
	}
	if r.Tree != nil {
		cp.Tree = r.Tree.Clone()
	}
	for i, step := range r.Steps {
		s := *step
		s.Components = append([]crafting.StepComponent(nil), step.Components...)
		cp.Steps[i] = &s
	}
	for id, qty := range r.CapBreakdown {
		cp.CapBreakdown[id] = qty
	}
	return cp
}

// Calculator orchestrates one auto-decide computation:
// materialize, apply tiers and forced purchases, propagate, decide, refine,
// propagate again with the refined flags, price, then aggregate steps and caps.
type Calculator struct {
	catalog     crafting.Catalog
	tables      *crafting.ExceptionTables
	recipeCache *RecipeCache
	resultCache *ResultCache
	observer    Observer

	propagator *QuantityPropagator
	aggregator *StepAggregator

	mu           sync.Mutex
	materializer *Materializer
}

// NewCalculator creates a calculator. Either cache may be nil.
func NewCalculator(
	catalog crafting.Catalog,
	tables *crafting.ExceptionTables,
	recipeCache *RecipeCache,
	resultCache *ResultCache,
) *Calculator {
	if tables == nil {
		tables = crafting.NewEmptyTables()
	}
	return &Calculator{
		catalog:     catalog,
		tables:      tables,
		recipeCache: recipeCache,
		resultCache: resultCache,
		propagator:  NewQuantityPropagator(tables),
		aggregator:  NewStepAggregator(tables),
	}
}

// SetObserver attaches an observer to the calculator and its caches
func (c *Calculator) SetObserver(observer Observer) {
	c.observer = observer
	c.recipeCache.SetObserver(observer)
	c.resultCache.SetObserver(observer)
}

// Tables returns the exception tables in use
func (c *Calculator) Tables() *crafting.ExceptionTables {
	return c.tables
}

// Invalidate drops the recipe index and both caches. Call after the catalog changes.
func (c *Calculator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materializer = nil
	c.recipeCache.Flush()
	c.resultCache.Flush()
}

func (c *Calculator) loadMaterializer(ctx context.Context) (*Materializer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.materializer != nil {
		return c.materializer, nil
	}
	recipes, err := c.catalog.FindAllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	decorations, err := c.catalog.FindDecorations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load decorations: %w", err)
	}
	c.materializer = NewMaterializer(recipes, decorations, c.tables, c.recipeCache)
	return c.materializer, nil
}

// Calculate runs one computation. Graph and data problems become warnings on the
// result; only invalid input and catalog failures are returned as errors.
func (c *Calculator) Calculate(ctx context.Context, req CalculationRequest) (result *CalculationResult, err error) {
	start := time.Now()
	cached := false
	defer func() {
		if c.observer != nil {
			c.observer.RecordCalculation(time.Since(start), cached, err)
		}
	}()

	if req.Quantity < 1 {
		return nil, &crafting.ErrInvalidQuantity{Quantity: req.Quantity}
	}
	if req.ItemID < 1 {
		return nil, fmt.Errorf("item id %d: %w", req.ItemID, crafting.ErrInvalidInput)
	}

	materializer, err := c.loadMaterializer(ctx)
	if err != nil {
		return nil, err
	}

	warnings := crafting.NewWarnings()
	nested, err := materializer.Materialize(req.ItemID, warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize item %d: %w", req.ItemID, err)
	}
	if nested == nil {
		nested = crafting.NewLeafRecipe(req.ItemID, crafting.KindItem, 1)
	}

	ids := nested.ItemIDs()
	items, err := c.catalog.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	prices, err := c.catalog.FindPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find prices: %w", err)
	}

	key := Fingerprint(req, c.tables.Version, prices)
	if hit, ok := c.resultCache.Get(key); ok {
		cached = true
		return hit, nil
	}

	tree := crafting.NewTreeFromRecipe(nested)
	c.decorate(tree, items, warnings)
	ApplyEfficiencyTiers(tree, req.EfficiencyTiers, c.tables)

	forceBuy := make(map[int]bool, len(req.ForceBuy))
	for _, id := range req.ForceBuy {
		forceBuy[id] = true
	}
	if req.ValueOwnItems {
		for id := range c.valueOwnForceBuy(tree, req.Quantity, prices) {
			forceBuy[id] = true
		}
	}
	ApplyForceBuy(tree, forceBuy)

	// Round one decides craft-vs-buy with inventory applied
	c.propagator.Propagate(tree, req.Quantity, crafting.NewInventoryPool(req.Inventory), false)
	NewPriceResolver(c.tables, prices, nil).Resolve(tree, true)
	RefineCraftFlags(tree)

	// Round two re-propagates so inventory is only consumed under crafted nodes
	for round := 0; round < maxFlagRounds; round++ {
		c.propagator.Propagate(tree, req.Quantity, crafting.NewInventoryPool(req.Inventory), false)
		if !RefineCraftFlags(tree) {
			break
		}
	}
	NewPriceResolver(c.tables, prices, warnings).Resolve(tree, false)

	steps := c.aggregator.Aggregate(tree)
	caps := CapBreakdown(tree, c.tables, warnings)

	result = &CalculationResult{
		Tree:         tree,
		Totals:       AutoTotals(tree),
		Steps:        steps,
		CapBreakdown: caps,
		Warnings:     warnings.List(),
	}
	c.resultCache.Set(key, result)

	if c.observer != nil {
		c.observer.RecordTreeSize(tree.CountNodes(), len(steps))
		c.observer.RecordWarnings(result.Warnings)
	}
	return result, nil
}

// AutoTotals summarizes an auto-decided tree: the cost of buying the target outright,
// its sell value, and the gold cost of the chosen plan
func AutoTotals(root *crafting.TreeNode) crafting.Totals {
	return crafting.Totals{
		TotalBuy:     root.BuyPrice,
		TotalSell:    root.SellPrice,
		TotalCrafted: root.ResultPrice,
	}
}

// valueOwnForceBuy runs a throwaway inventory-free pass and returns every crafted
// node whose market price is below the configured share of its craft cost
func (c *Calculator) valueOwnForceBuy(tree *crafting.TreeNode, quantity int, prices map[int]*crafting.MarketPrice) map[int]bool {
	threshold := c.tables.ValueOwnThreshold
	probe := tree.Clone()
	ApplyForceBuy(probe, nil)
	c.propagator.Propagate(probe, quantity, nil, true)
	NewPriceResolver(c.tables, prices, nil).Resolve(probe, true)

	result := make(map[int]bool)
	probe.Walk(func(node *crafting.TreeNode, depth int) bool {
		if depth == 0 || node.IsLeaf() || !node.HasBuyPrice {
			return true
		}
		if float64(node.BuyPrice) < threshold*float64(node.CraftPrice) {
			result[node.ID] = true
		}
		return true
	})
	return result
}

func (c *Calculator) decorate(tree *crafting.TreeNode, items map[int]*crafting.Item, warnings *crafting.Warnings) {
	tree.Walk(func(node *crafting.TreeNode, _ int) bool {
		switch node.Kind {
		case crafting.KindCurrency:
			if value, ok := c.tables.Currency(node.ID); ok {
				node.Name = value.Name
			}
		case crafting.KindItem:
			item, ok := items[node.ID]
			if !ok || item == nil {
				warnings.Add(crafting.WarningMissingItem, node.ID, "item %d not found in catalog", node.ID)
				return true
			}
			node.Name = item.Name
			node.Icon = item.Icon
			node.Rarity = item.Rarity
		}
		return true
	})
}

// SortedCapIDs returns cap breakdown ids in ascending order for stable output
func SortedCapIDs(caps map[int]int) []int {
	ids := make([]int, 0, len(caps))
	for id := range caps {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
