package crafting

import (
	"fmt"
	"sync"
)

// WarningKind classifies recoverable problems found during a computation
type WarningKind string

const (
	WarningCircularDependency WarningKind = "circular_dependency"
	WarningUnresolvedUpgrade  WarningKind = "unresolved_upgrade"
	WarningMissingItem        WarningKind = "missing_item"
	WarningMissingPrice       WarningKind = "missing_price"
	WarningCapExceeded        WarningKind = "cap_exceeded"
	WarningWorkerFallback     WarningKind = "worker_fallback"
)

// Warning is one deduplicated, user-visible problem report
type Warning struct {
	Key     string      `json:"key"`
	Kind    WarningKind `json:"kind"`
	ItemID  int         `json:"itemId,omitempty"`
	Message string      `json:"message"`
}

// Warnings collects warnings keyed by kind and item so repeated detections
// of the same problem produce a single entry
type Warnings struct {
	mu   sync.Mutex
	seen map[string]bool
	list []Warning
}

// NewWarnings creates an empty collector
func NewWarnings() *Warnings {
	return &Warnings{
		seen: make(map[string]bool),
		list: make([]Warning, 0),
	}
}

// Add records a warning unless one with the same kind and item already exists.
// Returns true if the warning was new. Adding to a nil collector is a no-op.
func (w *Warnings) Add(kind WarningKind, itemID int, format string, args ...interface{}) bool {
	if w == nil {
		return false
	}
	return w.add(Warning{
		Key:     fmt.Sprintf("%s:%d", kind, itemID),
		Kind:    kind,
		ItemID:  itemID,
		Message: fmt.Sprintf(format, args...),
	})
}

func (w *Warnings) add(warning Warning) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seen[warning.Key] {
		return false
	}
	w.seen[warning.Key] = true
	w.list = append(w.list, warning)
	return true
}

// List returns a copy of the warnings in detection order
func (w *Warnings) List() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := make([]Warning, len(w.list))
	copy(result, w.list)
	return result
}

// Count returns the number of warnings of a kind
func (w *Warnings) Count(kind WarningKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	for _, warning := range w.list {
		if warning.Kind == kind {
			count++
		}
	}
	return count
}

// Len returns the total number of warnings
func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
