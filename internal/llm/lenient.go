package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"huoltokirja/constants"
)

// FindJSONObject scans free text for the first balanced top-level JSON
// object and returns it. Models often wrap their JSON in prose or code
// fences; the reply is untrusted, so anything without a balanced object is
// simply "no fields".
func FindJSONObject(s string) (string, bool) {
	offset := 0
	for {
		idx := strings.IndexByte(s[offset:], '{')
		if idx < 0 {
			return "", false
		}
		start := offset + idx
		if end, ok := matchObject(s, start); ok {
			return s[start : end+1], true
		}
		offset = start + 1
	}
}

// matchObject finds the closing brace of the object opening at start,
// ignoring braces inside JSON strings, and checks the slice actually parses.
func matchObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if json.Valid([]byte(s[start : i+1])) {
					return i, true
				}
				return 0, false
			}
		}
	}
	return 0, false
}

// SanitizeFields normalizes a reply object so it can validate against the
// fields schema: renames nothing, but coerces mistyped values (numeric
// strings, float odometers, numeric invoice numbers), drops nulls and keys
// outside the schema. Returns the cleaned JSON and the dropped key list.
func SanitizeFields(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	out := make(map[string]any, len(m))

	for k, v := range m {
		if v == nil || !constants.IsSchemaField(k) {
			dropped = append(dropped, k)
			continue
		}
		cv, ok := coerceField(k, v)
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		out[k] = cv
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// DecodeFields turns a sanitized reply into the typed field map the
// reconciliation engine consumes (amounts float64, odometer int, lists
// []string).
func DecodeFields(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(m))
	for k, v := range m {
		cv, ok := coerceField(k, v)
		if !ok {
			continue
		}
		fields[k] = cv
	}
	return fields, nil
}

func coerceField(field string, v any) (any, bool) {
	switch field {
	case constants.FieldDate, constants.FieldCompany, constants.FieldInvoiceNumber:
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			return s, s != ""
		case float64:
			// models sometimes emit invoice numbers as numbers
			if field == constants.FieldInvoiceNumber && t == math.Trunc(t) {
				return strconv.FormatInt(int64(t), 10), true
			}
		}
	case constants.FieldAmount, constants.FieldVATAmount:
		switch t := v.(type) {
		case float64:
			return t, t >= 0
		case string:
			s := strings.NewReplacer(",", ".", " ", "").Replace(strings.TrimSpace(t))
			if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
				return f, true
			}
		}
	case constants.FieldOdometerKM:
		switch t := v.(type) {
		case float64:
			if t == math.Trunc(t) && t >= 0 {
				return int(t), true
			}
		case int:
			return t, t >= 0
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 0 {
				return n, true
			}
		}
	case constants.FieldWorkDescription:
		switch t := v.(type) {
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			return out, len(out) > 0
		case []string:
			return t, len(t) > 0
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return []string{s}, true
			}
		}
	}
	return nil, false
}
