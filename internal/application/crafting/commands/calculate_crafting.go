package commands

import (
	"context"
	"fmt"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// CalculateCraftingCommand computes the cheapest way to obtain Quantity of ItemID
type CalculateCraftingCommand struct {
	ItemID   int `validate:"min=1"`
	Quantity int `validate:"min=1"`

	// Owned counts by item id, drawn from below the root
	Inventory map[int]int `validate:"dive,min=0"`

	// Ids that must be bought even when crafting is cheaper
	ForceBuy []int

	// Homestead refinement tier by recipe output id
	EfficiencyTiers map[int]int `validate:"dive,min=0"`

	// Force-buy ingredients whose market price is below the value-own threshold of their craft cost
	ValueOwnItems bool
}

// CalculateCraftingResponse is the resolved plan
type CalculateCraftingResponse struct {
	Tree         *crafting.TreeNode
	Totals       crafting.Totals
	Steps        []*crafting.CraftingStep
	CapBreakdown map[int]int
	Warnings     []crafting.Warning
}

// CalculateCraftingHandler handles the CalculateCrafting command
type CalculateCraftingHandler struct {
	calculator *services.Calculator
}

// NewCalculateCraftingHandler creates a new CalculateCraftingHandler
func NewCalculateCraftingHandler(calculator *services.Calculator) *CalculateCraftingHandler {
	return &CalculateCraftingHandler{calculator: calculator}
}

// Handle executes the CalculateCrafting command
func (h *CalculateCraftingHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CalculateCraftingCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CalculateCraftingCommand")
	}
	if cmd.Quantity < 1 {
		return nil, &crafting.ErrInvalidQuantity{Quantity: cmd.Quantity}
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	logger := common.LoggerFromContext(ctx)
	result, err := h.calculator.Calculate(ctx, services.CalculationRequest{
		ItemID:          cmd.ItemID,
		Quantity:        cmd.Quantity,
		Inventory:       cmd.Inventory,
		ForceBuy:        cmd.ForceBuy,
		EfficiencyTiers: cmd.EfficiencyTiers,
		ValueOwnItems:   cmd.ValueOwnItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to calculate item %d: %w", cmd.ItemID, err)
	}

	for _, w := range result.Warnings {
		logger.Log("WARNING", fmt.Sprintf("[Calculator] %s", w.Message), map[string]interface{}{
			"kind":    string(w.Kind),
			"item_id": w.ItemID,
		})
	}
	logger.Log("INFO", fmt.Sprintf("[Calculator] Item %d x%d: %d steps", cmd.ItemID, cmd.Quantity, len(result.Steps)), map[string]interface{}{
		"total_crafted": result.Totals.TotalCrafted,
		"total_buy":     result.Totals.TotalBuy,
	})

	return &CalculateCraftingResponse{
		Tree:         result.Tree,
		Totals:       result.Totals,
		Steps:        result.Steps,
		CapBreakdown: result.CapBreakdown,
		Warnings:     result.Warnings,
	}, nil
}
