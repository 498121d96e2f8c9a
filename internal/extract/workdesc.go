package extract

import "regexp"

const maxWorkDescriptions = 10

// Common service and part terms found on Finnish receipts, with English
// variants for mixed-language layouts.
var workTerms = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(Öljynvaihto|Oil change)`),
	regexp.MustCompile(`(?i)(Öljynsuodatin|Oil filter)`),
	regexp.MustCompile(`(?i)(Ilmansuodatin|Air filter)`),
	regexp.MustCompile(`(?i)(Raitisilmasuodatin|Cabin air filter)`),
	regexp.MustCompile(`(?i)(Huolto|Service|Maintenance)`),
	regexp.MustCompile(`(?i)(Katsastus|Inspection)`),
	regexp.MustCompile(`(?i)(Jarru|Brake)`),
	regexp.MustCompile(`(?i)(Rengas|Renkaat|Tire|Tyres)`),
	regexp.MustCompile(`(?i)(Työveloitus|Labor)`),
	regexp.MustCompile(`(?i)(Pientarvikkeet|Small items)`),
}

// workDescriptions harvests service terms in table order, deduplicated
// and capped.
func workDescriptions(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range workTerms {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			desc := m[1]
			if _, dup := seen[desc]; dup {
				continue
			}
			seen[desc] = struct{}{}
			out = append(out, desc)
			if len(out) >= maxWorkDescriptions {
				return out
			}
		}
	}
	return out
}
