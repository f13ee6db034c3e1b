package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/logging"
)

func TestSlogLogger_JSONIncludesMetadata(t *testing.T) {
	// Arrange
	buf := &bytes.Buffer{}
	logger := logging.NewLoggerWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, buf)

	// Act
	logger.Log("WARNING", "[Dispatcher] Worker failed", map[string]interface{}{"job_id": "recalc-1234abcd"})

	// Assert
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "[Dispatcher] Worker failed", record["msg"])
	assert.Equal(t, "recalc-1234abcd", record["job_id"])
}

func TestSlogLogger_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLoggerWithWriter(&config.LoggingConfig{Level: "warn", Format: "text"}, buf)

	logger.Log("DEBUG", "hidden", nil)
	logger.Log("INFO", "hidden too", nil)
	logger.Log("ERROR", "shown", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}
