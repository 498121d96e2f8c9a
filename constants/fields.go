package constants

// Field names of the fixed extraction schema. Every reconciled record carries
// each of these, either as a typed value or as an explicit absent marker.
const (
	FieldDate            = "date"             // calendar date, YYYY-MM-DD
	FieldAmount          = "amount"           // total with VAT, EUR
	FieldVATAmount       = "vat_amount"       // EUR
	FieldInvoiceNumber   = "invoice_number"   // digits, kept as string
	FieldOdometerKM      = "odometer_km"      // integer km reading
	FieldCompany         = "company"          // canonical provider name
	FieldWorkDescription = "work_description" // list of service terms
)

// Schema returns the fixed field set in canonical order.
func Schema() []string {
	return []string{
		FieldDate,
		FieldAmount,
		FieldVATAmount,
		FieldInvoiceNumber,
		FieldOdometerKM,
		FieldCompany,
		FieldWorkDescription,
	}
}

// Severity classifies how validation treats an absent field.
type Severity string

const (
	SeverityRequired Severity = "required" // absence fails the document
	SeverityWarning  Severity = "warning"  // absence is surfaced, not fatal
	SeverityOptional Severity = "optional" // informational only
)

// DefaultSeverities is the expectation rule set used when a document has no
// verified rule set of its own.
func DefaultSeverities() map[string]Severity {
	return map[string]Severity{
		FieldDate:            SeverityRequired,
		FieldAmount:          SeverityRequired,
		FieldCompany:         SeverityRequired,
		FieldVATAmount:       SeverityWarning,
		FieldInvoiceNumber:   SeverityWarning,
		FieldOdometerKM:      SeverityWarning,
		FieldWorkDescription: SeverityOptional,
	}
}

// RequiredFields returns the fields whose absence after the pattern stage
// triggers the model fallback.
func RequiredFields() []string {
	return []string{FieldDate, FieldAmount, FieldCompany}
}

// IsSchemaField reports whether name belongs to the fixed schema.
func IsSchemaField(name string) bool {
	for _, f := range Schema() {
		if f == name {
			return true
		}
	}
	return false
}
