package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"huoltokirja/constants"
)

func TestExtractionStepHelpers(t *testing.T) {
	t.Parallel()

	step := ExtractionStep{
		Name:   constants.StepParsing,
		Method: "pattern",
		Fields: map[string]any{
			constants.FieldDate:   "2023-05-04",
			constants.FieldAmount: 240.00,
		},
	}
	assert.Equal(t, 2, step.FieldCount())
	assert.False(t, step.Failed())

	degraded := ExtractionStep{
		Name:    constants.StepLLMExtraction,
		Fields:  map[string]any{},
		Failure: FailureServiceUnavailable,
	}
	assert.Zero(t, degraded.FieldCount())
	assert.True(t, degraded.Failed())
}
