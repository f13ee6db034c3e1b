package crafting

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel wrapped by every request-level validation error
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidQuantity indicates a target quantity that cannot be computed
type ErrInvalidQuantity struct {
	Quantity int
}

func (e *ErrInvalidQuantity) Error() string {
	return fmt.Sprintf("invalid target quantity %d: must be at least 1", e.Quantity)
}

func (e *ErrInvalidQuantity) Unwrap() error { return ErrInvalidInput }

// ErrMalformedRecipe indicates a recipe whose shape cannot be materialized
type ErrMalformedRecipe struct {
	RecipeID int
	Reason   string
}

func (e *ErrMalformedRecipe) Error() string {
	return fmt.Sprintf("malformed recipe %d: %s", e.RecipeID, e.Reason)
}

func (e *ErrMalformedRecipe) Unwrap() error { return ErrInvalidInput }

// ErrInvalidSnapshot indicates a tree snapshot that cannot be rehydrated
type ErrInvalidSnapshot struct {
	Reason string
}

func (e *ErrInvalidSnapshot) Error() string {
	return "invalid tree snapshot: " + e.Reason
}

func (e *ErrInvalidSnapshot) Unwrap() error { return ErrInvalidInput }
