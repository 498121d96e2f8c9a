package constants

// StepName identifies which pipeline stage produced an extraction step.
// Stable values (stored in the DB and in persisted data.json artifacts).
type StepName string

const (
	StepOCR           StepName = "ocr"            // text recognition
	StepParsing       StepName = "parsing"        // deterministic pattern extraction
	StepLLMExtraction StepName = "llm_extraction" // model fallback
)

// DocStatus is the canonical status for rows in documents.
type DocStatus string

const (
	DocStatusRunning DocStatus = "RUNNING" // in progress
	DocStatusOCROK   DocStatus = "OCR_OK"  // text captured, fields pending
	DocStatusParsed  DocStatus = "PARSED"  // reconciled record produced
	DocStatusFailed  DocStatus = "FAILED"  // terminal failure (recognition)
)

// Mode selects which extraction stages a processing run executes.
type Mode string

const (
	ModeFull     Mode = "full"     // recognition -> pattern -> conditional fallback
	ModeOCR      Mode = "ocr"      // recognition only
	ModePattern  Mode = "pattern"  // recognition + pattern, no fallback
	ModeFallback Mode = "fallback" // recognition + pattern + forced fallback
)

// ParseMode maps a CLI string to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeFull, ModeOCR, ModePattern, ModeFallback:
		return Mode(s), true
	}
	return "", false
}
