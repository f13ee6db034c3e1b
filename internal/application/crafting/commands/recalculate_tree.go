package commands

import (
	"context"
	"fmt"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// TreeRecalculator recalculates a tree snapshot under its per-node modes.
// The worker dispatcher implements it; fallback reports a synchronous answer.
type TreeRecalculator interface {
	RecalculateTree(ctx context.Context, tree *crafting.TreeNode, globalQty int) (updated *crafting.TreeNode, totals crafting.Totals, fallback bool, err error)
}

// RecalculateTreeCommand applies user mode overrides to a tree and recomputes its totals
type RecalculateTreeCommand struct {
	Tree           *crafting.TreeNode `validate:"required"`
	GlobalQuantity int                `validate:"min=1"`

	// Mode for every occurrence of an id
	ModeOverrides map[int]crafting.Mode `validate:"dive,oneof=buy sell crafted"`
}

// RecalculateTreeResponse carries the recalculated tree
type RecalculateTreeResponse struct {
	Tree     *crafting.TreeNode
	Totals   crafting.Totals
	Warnings []crafting.Warning
}

// RecalculateTreeHandler handles the RecalculateTree command
type RecalculateTreeHandler struct {
	recalculator TreeRecalculator
}

// NewRecalculateTreeHandler creates a new RecalculateTreeHandler
func NewRecalculateTreeHandler(recalculator TreeRecalculator) *RecalculateTreeHandler {
	return &RecalculateTreeHandler{recalculator: recalculator}
}

// Handle executes the RecalculateTree command. The command's tree is left untouched.
func (h *RecalculateTreeHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RecalculateTreeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RecalculateTreeCommand")
	}
	if cmd.GlobalQuantity < 1 {
		return nil, &crafting.ErrInvalidQuantity{Quantity: cmd.GlobalQuantity}
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	tree := cmd.Tree.Clone()
	services.ApplyModes(tree, cmd.ModeOverrides)

	updated, totals, fallback, err := h.recalculator.RecalculateTree(ctx, tree, cmd.GlobalQuantity)
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate tree: %w", err)
	}

	warnings := crafting.NewWarnings()
	if fallback {
		warnings.Add(crafting.WarningWorkerFallback, 0, "background worker unavailable, recalculated in-process")
	}

	return &RecalculateTreeResponse{
		Tree:     updated,
		Totals:   totals,
		Warnings: warnings.List(),
	}, nil
}
