package extract

import "regexp"

// Known service providers as a data-driven lookup table: pattern variants per
// issuer mapped to the canonical name. New issuers are added here, not in
// extraction logic.
var providers = []struct {
	Canonical string
	Pattern   *regexp.Regexp
}{
	{"Järvenpään Automajor Oy", regexp.MustCompile(`(?i)Järvenpään\s+Automajor`)},
	{"Veho Autotalot Oy", regexp.MustCompile(`(?i)\bVeho(?:\s+Autotalot)?\b`)},
	{"A-Katsastus", regexp.MustCompile(`A-Katsastus`)},
	{"Sulan Katsastus", regexp.MustCompile(`(?i)Sulan\s+Katsastus`)},
	{"First Stop", regexp.MustCompile(`(?i)First\s+Stop`)},
	{"Euromaster", regexp.MustCompile(`(?i)Euromaster`)},
}

func providerRules() []rule {
	rules := make([]rule, 0, len(providers))
	for _, p := range providers {
		rules = append(rules, rule{p.Pattern, fixedParser(p.Canonical)})
	}
	return rules
}
