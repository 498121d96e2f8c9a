package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"huoltokirja/constants"
)

// rule pairs a layout regex with a parser turning its submatches into a
// typed value. A parser returning ok=false rejects the match and the next
// rule is tried.
type rule struct {
	re    *regexp.Regexp
	parse func(m []string) (any, bool)
}

// fieldRules is the per-field rule table, most specific patterns first.
// Layouts are tuned to Finnish service receipts (Veho, Automajor, katsastus
// and tire shops).
func fieldRules() map[string][]rule {
	return map[string][]rule{
		constants.FieldDate: {
			// DD.MM.YYYY or DD.MM.YY
			{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})\b`), parseFinnishDate},
			// ISO YYYY-MM-DD
			{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), parseISODate},
		},
		constants.FieldAmount: {
			// total with "Yhteensä:" and explicit EUR (most specific)
			{regexp.MustCompile(`(?i)Yhteensä:\s*(\d+[,.\s]\d{2})\s*EUR`), parseAmount},
			{regexp.MustCompile(`(?i)(?:Yhteensä|MAKSETTAVA YHTEENSÄ).*?(\d+[,.\s]\d{2})`), parseAmount},
			{regexp.MustCompile(`(\d+[,.\s]\d{2})\s*(?:EUR|€)`), parseAmount},
		},
		constants.FieldVATAmount: {
			// "+ALV 22,00 % 36,74"
			{regexp.MustCompile(`(?i)\+?ALV\s+\d+[,.\s]\d{2}\s*%\s*(\d+[,.\s]\d{2})`), parseAmount},
			{regexp.MustCompile(`(?i)(?:ALV|Arvonlisävero|Vero).*?(\d+[,.\s]\d{2})`), parseAmount},
			{regexp.MustCompile(`(?:24|25\.5)\s*%.*?(\d+[,.\s]\d{2})`), parseAmount},
		},
		constants.FieldInvoiceNumber: {
			// 8-digit invoice numbers (Veho)
			{regexp.MustCompile(`\b(\d{8})\b`), parseString},
			{regexp.MustCompile(`(?i)(?:Laskunro|Laskunumero|Invoice)[\s:]*(\d+)`), parseString},
			// standalone 6-7 digit numbers
			{regexp.MustCompile(`\b(\d{6,7})\b`), parseString},
		},
		constants.FieldOdometerKM: {
			// reading after "Mittarilukema:" label, possibly on the next line
			{regexp.MustCompile(`(?i)Mittarilukema:[^\n]*\n+(\d{6})`), parseOdometer},
			{regexp.MustCompile(`(?i)(?:Mittarilukema|Mittarilkm|Mileage)[\s:]*(\d+)`), parseOdometer},
			// standalone 6-digit number on its own line
			{regexp.MustCompile(`(?m)^(\d{6})$`), parseOdometer},
			{regexp.MustCompile(`(\d{6,7})\s*km`), parseOdometer},
		},
		constants.FieldCompany: providerRules(),
	}
}

func parseFinnishDate(m []string) (any, bool) {
	day, month, year := m[1], m[2], m[3]
	if len(year) == 2 {
		if y, _ := strconv.Atoi(year); y < 50 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	}
	return canonicalDate(year, month, day)
}

func parseISODate(m []string) (any, bool) {
	return canonicalDate(m[1], m[2], m[3])
}

// canonicalDate rejects impossible calendar dates and normalizes to
// YYYY-MM-DD.
func canonicalDate(year, month, day string) (any, bool) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return nil, false
	}
	return t.Format("2006-01-02"), true
}

// parseAmount handles the European decimal format: comma as decimal
// separator, optional thousands spaces.
func parseAmount(m []string) (any, bool) {
	s := strings.NewReplacer(",", ".", " ", "").Replace(m[1])
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func parseOdometer(m []string) (any, bool) {
	km, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	return km, true
}

func parseString(m []string) (any, bool) {
	s := strings.TrimSpace(m[1])
	if s == "" {
		return nil, false
	}
	return s, true
}

// fixedParser yields the same canonical value for any match.
func fixedParser(v string) func(m []string) (any, bool) {
	return func([]string) (any, bool) { return v, true }
}
