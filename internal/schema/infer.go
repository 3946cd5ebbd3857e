package schema

import "strings"

// Mapping records which column index serves each detected semantic field.
// Fields with no matching header are simply absent; absence is never an
// error. Columns are NOT claimed exclusively: one header may satisfy several
// fields, and the engine makes no attempt to disambiguate beyond the
// priority encoded in the synonym lists.
type Mapping map[Field]int

// Has reports whether the field was detected.
func (m Mapping) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Detected returns the detected fields in canonical enumeration order.
func (m Mapping) Detected() []Field {
	out := make([]Field, 0, len(m))
	for _, f := range CanonicalOrder {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Infer maps normalized headers onto semantic fields. For each field the
// synonym fragments are walked in priority order; for each fragment the
// headers are scanned in column order and the first header containing the
// fragment as a substring is selected. The first fragment that yields any
// match wins for that field.
//
// Headers must already be normalized (trimmed, lowercased); the tabular
// loader guarantees that.
func Infer(headers []string) Mapping {
	m := make(Mapping)

	for _, field := range CanonicalOrder {
		if field == FieldCustomFields {
			continue
		}
		if idx, ok := findColumn(headers, synonyms[field]); ok {
			m[field] = idx
		}
	}

	// User-defined columns follow the SAP "U_" naming convention. Only the
	// first such column is surfaced.
	for i, h := range headers {
		if strings.HasPrefix(h, "u_") {
			m[FieldCustomFields] = i
			break
		}
	}

	return m
}

// findColumn returns the index of the first header matched by the highest
// priority fragment that matches anything.
func findColumn(headers []string, fragments []string) (int, bool) {
	for _, frag := range fragments {
		for i, h := range headers {
			if strings.Contains(h, frag) {
				return i, true
			}
		}
	}
	return 0, false
}
