package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.(\d{4}|\d{2})\b|\b\d{4}-\d{2}-\d{2}\b`)
	reCurr   = regexp.MustCompile(`\beur\b|€`)
	reAmount = regexp.MustCompile(`\b\d+[,.]\d{2}\b`)
	reLabel  = regexp.MustCompile(`yhteensä|laskunro|mittarilukema|alv`)
)

func hasDatePattern(s string) bool   { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool { return reAmount.MatchString(s) }
func hasReceiptLabel(s string) bool  { return reLabel.MatchString(s) }

// naive heuristic confidence based on recognized text characteristics
func heuristicConfidence(txt string) float32 {
	// boost when common Finnish receipt artifacts are present
	// (date-ish, currency-ish, amount-ish, known labels).
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if hasReceiptLabel(txtL) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
