package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feanru/gw2-v18-sub001/pkg/utils"
)

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 2, utils.CeilDiv(10, 5))
	assert.Equal(t, 3, utils.CeilDiv(11, 5))
	assert.Equal(t, 0, utils.CeilDiv(0, 5))
	assert.Equal(t, 0, utils.CeilDiv(-3, 5))
}

func TestRoundUpToMultiple(t *testing.T) {
	assert.Equal(t, 10, utils.RoundUpToMultiple(7, 5))
	assert.Equal(t, 10, utils.RoundUpToMultiple(10, 5))
	assert.Equal(t, 4, utils.RoundUpToMultiple(4, 1))
}

func TestGenerateJobID(t *testing.T) {
	first := utils.GenerateJobID("recalc")
	second := utils.GenerateJobID("recalc")

	assert.True(t, strings.HasPrefix(first, "recalc-"))
	assert.Len(t, first, len("recalc-")+8)
	assert.NotEqual(t, first, second)
}
