package validate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"huoltokirja/constants"
)

// equalValues compares an extracted value with a trusted value for one
// field, using the field's type semantics rather than raw equality.
func (e *Engine) equalValues(field string, got, want any) bool {
	switch field {
	case constants.FieldDate:
		gd, gok := asDate(got)
		wd, wok := asDate(want)
		return gok && wok && gd.Equal(wd)
	case constants.FieldAmount, constants.FieldVATAmount:
		gf, gok := asFloat(got)
		wf, wok := asFloat(want)
		return gok && wok && math.Abs(gf-wf) <= e.tolerance
	case constants.FieldOdometerKM:
		gi, gok := asFloat(got)
		wi, wok := asFloat(want)
		return gok && wok && gi == wi
	case constants.FieldWorkDescription:
		return equalStringSets(asStringList(got), asStringList(want))
	default:
		return normalizeString(got) == normalizeString(want)
	}
}

func asDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(t), ",", ".", 1), 64)
		return f, err == nil
	}
	return 0, false
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// equalStringSets compares lists order- and case-insensitively.
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	na := make([]string, len(a))
	nb := make([]string, len(b))
	for i := range a {
		na[i] = normalizeString(a[i])
	}
	for i := range b {
		nb[i] = normalizeString(b[i])
	}
	sort.Strings(na)
	sort.Strings(nb)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// normalizeString lowercases and collapses internal whitespace.
func normalizeString(v any) string {
	return strings.ToLower(strings.Join(strings.Fields(fmt.Sprint(v)), " "))
}
