package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"huoltokirja/constants"
	"huoltokirja/internal/entity"
)

func completeFields() map[string]any {
	return map[string]any{
		constants.FieldDate:            "2023-05-04",
		constants.FieldAmount:          240.00,
		constants.FieldVATAmount:       46.45,
		constants.FieldInvoiceNumber:   "23875510",
		constants.FieldOdometerKM:      387551,
		constants.FieldCompany:         "Veho Autotalot Oy",
		constants.FieldWorkDescription: []string{"Öljynvaihto"},
	}
}

func TestCheckCompleteRecordPasses(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)

	out := e.Check(completeFields(), nil)

	assert.True(t, out.Passed)
	assert.False(t, out.Warned())
	assert.Empty(t, out.MissingRequired)
	assert.Empty(t, out.Mismatches)
}

func TestCheckSeverities(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)

	fields := completeFields()
	delete(fields, constants.FieldAmount)          // required
	delete(fields, constants.FieldVATAmount)       // warning
	delete(fields, constants.FieldWorkDescription) // optional

	out := e.Check(fields, nil)

	assert.False(t, out.Passed)
	assert.Equal(t, []string{constants.FieldAmount}, out.MissingRequired)
	assert.Equal(t, []string{constants.FieldVATAmount}, out.MissingWarning)
	assert.Equal(t, []string{constants.FieldWorkDescription}, out.MissingOptional)
}

func TestCheckWarningsNeverFail(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)

	fields := completeFields()
	delete(fields, constants.FieldVATAmount)
	delete(fields, constants.FieldInvoiceNumber)
	delete(fields, constants.FieldOdometerKM)

	out := e.Check(fields, nil)

	assert.True(t, out.Passed)
	assert.True(t, out.Warned())
	assert.Len(t, out.MissingWarning, 3)
}

func TestCheckCustomRules(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)

	rules := &entity.ExpectationRules{
		Required: []string{constants.FieldOdometerKM},
		Warning:  []string{constants.FieldDate},
	}
	fields := map[string]any{constants.FieldDate: "2023-05-04"}

	out := e.Check(fields, rules)

	assert.False(t, out.Passed)
	assert.Equal(t, []string{constants.FieldOdometerKM}, out.MissingRequired)
	assert.Empty(t, out.MissingWarning)
}

func TestCheckAgainstTruthAmountTolerance(t *testing.T) {
	t.Parallel()

	truth := map[string]any{constants.FieldAmount: 240.00}
	rules := &entity.ExpectationRules{Required: []string{constants.FieldAmount}}

	tests := []struct {
		name      string
		tolerance float64
		got       float64
		passed    bool
	}{
		{"exact", 0, 240.00, true},
		{"within default tolerance", 0, 240.005, true},
		{"outside default tolerance", 0, 240.02, false},
		{"wider tolerance accepts", 0.5, 240.30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewEngine(tt.tolerance, nil)
			out := e.CheckAgainstTruth(map[string]any{constants.FieldAmount: tt.got}, truth, rules)
			assert.Equal(t, tt.passed, out.Passed)
		})
	}
}

func TestCheckAgainstTruthComparisons(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)
	rules := &entity.ExpectationRules{
		Required: []string{constants.FieldDate, constants.FieldCompany},
		Optional: []string{constants.FieldWorkDescription, constants.FieldOdometerKM},
	}

	fields := map[string]any{
		constants.FieldDate:            "2023-05-04",
		constants.FieldCompany:         "  veho   autotalot oy ",
		constants.FieldOdometerKM:      387551,
		constants.FieldWorkDescription: []string{"Katsastus", "Öljynvaihto"},
	}
	truth := map[string]any{
		constants.FieldDate:            "2023-05-04",
		constants.FieldCompany:         "Veho Autotalot Oy",
		constants.FieldOdometerKM:      float64(387551), // JSON numbers decode as float64
		constants.FieldWorkDescription: []any{"öljynvaihto", "katsastus"},
	}

	out := e.CheckAgainstTruth(fields, truth, rules)

	assert.True(t, out.Passed, "mismatches: %v", out.Mismatches)
	assert.Empty(t, out.Mismatches)
}

func TestCheckAgainstTruthMismatch(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)
	rules := &entity.ExpectationRules{Required: []string{constants.FieldDate}}

	out := e.CheckAgainstTruth(
		map[string]any{constants.FieldDate: "2023-05-05"},
		map[string]any{constants.FieldDate: "2023-05-04"},
		rules,
	)

	assert.False(t, out.Passed)
	assert.Len(t, out.Mismatches, 1)
	assert.Contains(t, out.Mismatches[0], `field "date"`)
}

func TestCheckAgainstTruthIgnoresFieldsOutsideTruth(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)
	rules := &entity.ExpectationRules{Required: []string{constants.FieldDate, constants.FieldAmount}}

	out := e.CheckAgainstTruth(
		map[string]any{constants.FieldDate: "2023-05-04", constants.FieldAmount: 240.00},
		map[string]any{constants.FieldDate: "2023-05-04"},
		rules,
	)

	assert.True(t, out.Passed)
}

func TestWarningMonotonicity(t *testing.T) {
	t.Parallel()
	e := NewEngine(0, nil)

	fields := map[string]any{constants.FieldDate: "2023-05-04"}
	base := e.Check(fields, &entity.ExpectationRules{Required: []string{constants.FieldDate}})

	widened := e.Check(fields, &entity.ExpectationRules{
		Required: []string{constants.FieldDate},
		Warning:  []string{constants.FieldVATAmount, constants.FieldOdometerKM},
	})

	assert.True(t, base.Passed)
	assert.True(t, widened.Passed, "adding warning fields must not fail a passing record")
	assert.True(t, widened.Warned())
}
