package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateJobID creates a short, human-readable job id for log correlation.
// Format: {operation}-{8charHexUUID}, e.g. "recalc-a3f8e2b1".
func GenerateJobID(operation string) string {
	return operation + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
