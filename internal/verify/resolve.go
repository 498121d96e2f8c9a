package verify

import (
	"sort"

	"huoltokirja/internal/entity"
)

// Record source labels.
const (
	SourceReconciled = "reconciled"
	SourceVerified   = "verified"
	SourceOverridden = "verified+override"
)

// Resolve produces the FinalRecord for a document.
//
// Precedence, lowest to highest: reconciled record, ground truth, override.
// Ground truth replaces the reconciled fields wholesale, it is
// authoritative rather than merged field-by-field. The override is applied last,
// strictly overwriting ground truth for every field it names and touching
// nothing else. Pure function; inputs are never mutated.
func Resolve(reconciled entity.ReconciledRecord, gt *entity.GroundTruthRecord, ov *entity.OverrideRecord) entity.FinalRecord {
	if gt == nil {
		return entity.FinalRecord{
			Fields: cloneFields(reconciled.Fields),
			Source: SourceReconciled,
		}
	}

	final := entity.FinalRecord{
		Fields: cloneFields(gt.Fields),
		Source: SourceVerified,
		Rules:  gt.Rules,
	}

	if ov != nil && len(ov.Fields) > 0 {
		for field, v := range ov.Fields {
			final.Fields[field] = v
			final.Overridden = append(final.Overridden, field)
		}
		sort.Strings(final.Overridden)
		final.Source = SourceOverridden
	}
	return final
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
