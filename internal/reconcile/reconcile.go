// Package reconcile merges the extraction stages' outputs into one
// authoritative record per document. Current state is a deterministic fold
// over the ordered step history, pure functions over immutable input.
package reconcile

import (
	"huoltokirja/constants"
	"huoltokirja/internal/entity"
)

// Merge folds field-producing steps in chronological order into a
// ReconciledRecord. Precedence is strictly "first successful stage wins":
// stages run pattern before fallback, so a fallback value never displaces a
// pattern value. Provenance records the step that supplied each accepted
// value. Every schema field ends up either populated or explicitly absent.
func Merge(steps []entity.ExtractionStep) entity.ReconciledRecord {
	rec := entity.NewReconciledRecord()

	for _, step := range steps {
		if step.Failed() {
			continue
		}
		for _, field := range constants.Schema() {
			v, ok := step.Fields[field]
			if !ok || rec.Has(field) {
				continue
			}
			rec.Set(field, v, step.Name)
		}
	}

	repairOdometerField(&rec)
	return rec
}

// repairOdometerField applies the digit-insertion heuristic after the stage
// merge, before the record is finalized.
func repairOdometerField(rec *entity.ReconciledRecord) {
	v, ok := rec.Fields[constants.FieldOdometerKM]
	if !ok {
		return
	}
	km, ok := asInt(v)
	if !ok {
		return
	}
	if fixed := RepairOdometer(km); fixed != km {
		rec.Fields[constants.FieldOdometerKM] = fixed
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	}
	return 0, false
}
