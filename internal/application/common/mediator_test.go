package common_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
)

type pingCommand struct{ Value int }

type pingHandler struct{}

func (h *pingHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd := request.(*pingCommand)
	if cmd.Value < 0 {
		return nil, errors.New("negative")
	}
	return cmd.Value * 2, nil
}

type recordingLogger struct {
	levels []string
}

func (l *recordingLogger) Log(level, message string, metadata map[string]interface{}) {
	l.levels = append(l.levels, level)
}

func TestMediator_SendRunsMiddlewaresInOrder(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*pingCommand](m, &pingHandler{}))
	order := make([]string, 0)
	for _, name := range []string{"outer", "inner"} {
		name := name
		m.Use(func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
			order = append(order, name)
			return next(ctx, request)
		})
	}

	// Act
	resp, err := m.Send(context.Background(), &pingCommand{Value: 21})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 42, resp)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestMediator_RejectsDuplicateAndUnknown(t *testing.T) {
	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*pingCommand](m, &pingHandler{}))

	assert.Error(t, common.RegisterHandler[*pingCommand](m, &pingHandler{}))
	_, err := m.Send(context.Background(), "unknown")
	assert.Error(t, err)
	_, err = m.Send(context.Background(), nil)
	assert.Error(t, err)
}

func TestLoggingMiddleware_LogsFailures(t *testing.T) {
	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*pingCommand](m, &pingHandler{}))
	m.Use(common.LoggingMiddleware())
	logger := &recordingLogger{}
	ctx := common.WithLogger(context.Background(), logger)

	_, err := m.Send(ctx, &pingCommand{Value: -1})

	require.Error(t, err)
	assert.Equal(t, []string{"DEBUG", "ERROR"}, logger.levels)
}
