package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Request is the message sent to a worker: a plain tree snapshot plus the global quantity
type Request struct {
	IngredientTree *crafting.TreeNode `json:"ingredientTree"`
	GlobalQty      int                `json:"globalQty"`
}

// Response is the worker reply. Error is set instead of the payload when the
// worker could not handle the request.
type Response struct {
	UpdatedTree *crafting.TreeNode `json:"updatedTree,omitempty"`
	Totals      crafting.Totals    `json:"totals"`
	Error       string             `json:"error,omitempty"`
}

// Validate rejects requests that no worker could answer
func (r *Request) Validate() error {
	if r == nil || r.IngredientTree == nil {
		return &crafting.ErrInvalidSnapshot{Reason: "missing ingredient tree"}
	}
	if r.GlobalQty < 1 {
		return &crafting.ErrInvalidQuantity{Quantity: r.GlobalQty}
	}
	return nil
}

// Handler is the worker-side message handler. It is the same recalculation used by
// the synchronous fallback, applied to a decoded snapshot.
type Handler struct {
	recalculator *services.ModeRecalculator
}

// NewHandler creates a handler
func NewHandler(recalculator *services.ModeRecalculator) *Handler {
	return &Handler{recalculator: recalculator}
}

// Compute rehydrates the snapshot in place and recalculates it
func (h *Handler) Compute(req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := crafting.Rehydrate(req.IngredientTree); err != nil {
		return nil, err
	}
	totals := h.recalculator.Recalculate(req.IngredientTree, req.GlobalQty)
	return &Response{UpdatedTree: req.IngredientTree, Totals: totals}, nil
}

// HandlePayload decodes one request, computes it and encodes the response.
// Handler failures are reported inside the response.
func (h *Handler) HandlePayload(payload []byte) []byte {
	var req Request
	var resp *Response
	if err := json.Unmarshal(payload, &req); err != nil {
		resp = &Response{Error: fmt.Sprintf("decode request: %v", err)}
	} else if computed, err := h.Compute(&req); err != nil {
		resp = &Response{Error: err.Error()}
	} else {
		resp = computed
	}

	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(&Response{Error: fmt.Sprintf("encode response: %v", err)})
	}
	return out
}

// Serve answers newline-delimited requests from r on w until r is exhausted or ctx ends.
// It is the loop run by the worker subprocess.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && !(len(line) == 1 && line[0] == '\n') {
			out := h.HandlePayload(line)
			if _, werr := writer.Write(append(out, '\n')); werr != nil {
				return fmt.Errorf("failed to write response: %w", werr)
			}
			if ferr := writer.Flush(); ferr != nil {
				return fmt.Errorf("failed to flush response: %w", ferr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}
	}
}

func decodeResponse(payload []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("worker error: %s", resp.Error)
	}
	if resp.UpdatedTree == nil {
		return nil, fmt.Errorf("worker returned no tree")
	}
	if err := crafting.Rehydrate(resp.UpdatedTree); err != nil {
		return nil, fmt.Errorf("rehydrate response: %w", err)
	}
	return &resp, nil
}
