package llm

import (
	"strings"

	"huoltokirja/constants"
)

const maxPromptText = 6000

var fieldInstructions = map[string]string{
	constants.FieldDate:            "\"date\": service date as YYYY-MM-DD",
	constants.FieldAmount:          "\"amount\": total paid including VAT, as a number in euros",
	constants.FieldVATAmount:       "\"vat_amount\": VAT portion as a number in euros",
	constants.FieldInvoiceNumber:   "\"invoice_number\": invoice number as a string of digits",
	constants.FieldOdometerKM:      "\"odometer_km\": odometer reading as an integer (kilometres)",
	constants.FieldCompany:         "\"company\": the service company name",
	constants.FieldWorkDescription: "\"work_description\": array of short strings naming the work done",
}

// BuildSystemPrompt composes the extraction instruction. The receipt text is
// Finnish; the reply must be a bare JSON object so the tolerant parser can
// find it even when the model adds prose around it.
func BuildSystemPrompt() string {
	return strings.Join([]string{
		"You are a parser for Finnish car service receipts.",
		"Extract the requested fields from the OCR text and return ONLY a JSON object.",
		"Use ISO-8601 dates (YYYY-MM-DD). Amounts are euros with a dot decimal separator.",
		"Finnish receipts use a comma decimal separator; convert it.",
		"Omit any field you cannot find. Never output null.",
	}, " ")
}

// BuildUserPrompt packages the recognized text plus the target field list.
// When missing is non-empty the instruction is narrowed to just those fields.
func BuildUserPrompt(req ExtractRequest) string {
	fields := req.MissingFields
	if len(fields) == 0 {
		fields = constants.Schema()
	}

	var b strings.Builder
	b.WriteString("Extract these fields:\n")
	for _, f := range fields {
		if inst, ok := fieldInstructions[f]; ok {
			b.WriteString("- ")
			b.WriteString(inst)
			b.WriteString("\n")
		}
	}

	text := strings.TrimSpace(req.Text)
	b.WriteString("\nReceipt OCR text:\n")
	if len(text) > maxPromptText {
		b.WriteString(text[:maxPromptText])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
