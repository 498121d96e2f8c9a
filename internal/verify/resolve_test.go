package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huoltokirja/constants"
	"huoltokirja/internal/entity"
)

func reconciledFixture() entity.ReconciledRecord {
	rec := entity.NewReconciledRecord()
	rec.Set(constants.FieldDate, "2023-05-04", constants.StepParsing)
	rec.Set(constants.FieldAmount, 240.00, constants.StepParsing)
	rec.Set(constants.FieldOdometerKM, 2352832, constants.StepLLMExtraction)
	return rec
}

func TestResolveWithoutGroundTruth(t *testing.T) {
	t.Parallel()

	rec := reconciledFixture()
	final := Resolve(rec, nil, nil)

	assert.Equal(t, SourceReconciled, final.Source)
	assert.Equal(t, rec.Fields, final.Fields)
	assert.Empty(t, final.Overridden)
	assert.Nil(t, final.Rules)

	// an override without ground truth has nothing to correct
	final = Resolve(rec, nil, &entity.OverrideRecord{
		Fields: map[string]any{constants.FieldAmount: 1.00},
	})
	assert.Equal(t, SourceReconciled, final.Source)
	assert.Equal(t, 240.00, final.Fields[constants.FieldAmount])
}

func TestResolveGroundTruthReplacesWholesale(t *testing.T) {
	t.Parallel()

	gt := &entity.GroundTruthRecord{
		Fields: map[string]any{
			constants.FieldDate:   "2023-05-05",
			constants.FieldAmount: 250.00,
		},
	}

	final := Resolve(reconciledFixture(), gt, nil)

	assert.Equal(t, SourceVerified, final.Source)
	assert.Equal(t, "2023-05-05", final.Fields[constants.FieldDate])
	assert.Equal(t, 250.00, final.Fields[constants.FieldAmount])
	// reconciled-only fields do not leak into a verified record
	assert.NotContains(t, final.Fields, constants.FieldOdometerKM)
}

func TestResolveOverrideWinsFieldByField(t *testing.T) {
	t.Parallel()

	gt := &entity.GroundTruthRecord{
		Fields: map[string]any{
			constants.FieldDate:       "2023-05-05",
			constants.FieldAmount:     250.00,
			constants.FieldOdometerKM: 2352832,
		},
	}
	ov := &entity.OverrideRecord{
		Fields: map[string]any{constants.FieldOdometerKM: 352832},
		Reason: "digit misread confirmed against the dashboard photo",
	}

	final := Resolve(reconciledFixture(), gt, ov)

	assert.Equal(t, SourceOverridden, final.Source)
	assert.Equal(t, 352832, final.Fields[constants.FieldOdometerKM])
	assert.Equal(t, "2023-05-05", final.Fields[constants.FieldDate])
	assert.Equal(t, 250.00, final.Fields[constants.FieldAmount])
	assert.Equal(t, []string{constants.FieldOdometerKM}, final.Overridden)
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	rec := reconciledFixture()
	gt := &entity.GroundTruthRecord{
		Fields: map[string]any{constants.FieldAmount: 250.00},
	}
	ov := &entity.OverrideRecord{
		Fields: map[string]any{constants.FieldAmount: 260.00},
	}

	_ = Resolve(rec, gt, ov)

	assert.Equal(t, 240.00, rec.Fields[constants.FieldAmount])
	assert.Equal(t, 250.00, gt.Fields[constants.FieldAmount])
}

func TestResolveCarriesRules(t *testing.T) {
	t.Parallel()

	rules := entity.DefaultExpectationRules()
	gt := &entity.GroundTruthRecord{
		Fields: map[string]any{constants.FieldAmount: 250.00},
		Rules:  &rules,
	}

	final := Resolve(reconciledFixture(), gt, nil)

	require.NotNil(t, final.Rules)
	assert.Equal(t, rules.Required, final.Rules.Required)
}
