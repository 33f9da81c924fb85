package store

import "time"

// Typed accessors for Document fields. Missing or mistyped fields decode to
// zero values; structural validation happens upstream, so converters stay
// tolerant of schemaless documents.

func (d Document) String(field string) string {
	v, _ := d.Data[field].(string)
	return v
}

func (d Document) Int(field string) int {
	switch v := d.Data[field].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (d Document) Float(field string) (float64, bool) {
	switch v := d.Data[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (d Document) Time(field string) time.Time {
	v, _ := d.Data[field].(time.Time)
	return v
}

func (d Document) Map(field string) map[string]any {
	v, _ := d.Data[field].(map[string]any)
	return v
}

// Strings decodes a field stored either as []string or as []any of strings.
func (d Document) Strings(field string) []string {
	switch v := d.Data[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Maps decodes a field stored as a list of nested objects.
func (d Document) Maps(field string) []map[string]any {
	switch v := d.Data[field].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
