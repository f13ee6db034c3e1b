package helpers

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
)

// MockMediator is a test double for the Mediator interface.
// Without a custom send function it answers RecalculateTreeCommand synchronously
// with the mode recalculator over NewTestTables.
type MockMediator struct {
	sendFunc func(ctx context.Context, request common.Request) (common.Response, error)
	callLog  []string
}

// NewMockMediator creates a new MockMediator
func NewMockMediator() *MockMediator {
	return &MockMediator{
		callLog: []string{},
	}
}

// Send implements the Mediator interface
func (m *MockMediator) Send(ctx context.Context, request common.Request) (common.Response, error) {
	m.callLog = append(m.callLog, strings.TrimPrefix(fmt.Sprintf("%T", request), "*commands."))

	if m.sendFunc != nil {
		return m.sendFunc(ctx, request)
	}

	switch req := request.(type) {
	case *commands.RecalculateTreeCommand:
		tree := req.Tree.Clone()
		services.ApplyModes(tree, req.ModeOverrides)
		totals := services.NewModeRecalculator(NewTestTables()).Recalculate(tree, req.GlobalQuantity)
		return &commands.RecalculateTreeResponse{Tree: tree, Totals: totals}, nil

	default:
		return nil, fmt.Errorf("unsupported request type: %T", request)
	}
}

// SetSendFunc sets a custom function for Send calls
func (m *MockMediator) SetSendFunc(fn func(ctx context.Context, request common.Request) (common.Response, error)) {
	m.sendFunc = fn
}

// GetCallLog returns the short type names of the requests sent so far
func (m *MockMediator) GetCallLog() []string {
	return append([]string{}, m.callLog...)
}

// ClearCallLog clears the call log
func (m *MockMediator) ClearCallLog() {
	m.callLog = []string{}
}

// Register implements the Mediator interface (no-op for tests)
func (m *MockMediator) Register(requestType reflect.Type, handler common.RequestHandler) error {
	return nil
}

// Use implements the Mediator interface (no-op for tests)
func (m *MockMediator) Use(middleware common.Middleware) {}

var _ common.Mediator = (*MockMediator)(nil)
