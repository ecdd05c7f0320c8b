package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a raw fetched row keyed by column name.
type Record map[string]any

// Field is one extra key/value pair of an output record.
type Field struct {
	Key   string
	Value any
}

// OutputRecord is the uniform {id, name, ...extra} shape. It marshals with
// id and name first and extras in selection order.
type OutputRecord struct {
	ID    any
	Name  *string
	Extra []Field
}

// Keys returns the output keys in order.
func (r OutputRecord) Keys() []string {
	keys := make([]string, 0, len(r.Extra)+2)
	keys = append(keys, IDField, "name")
	for _, f := range r.Extra {
		keys = append(keys, f.Key)
	}
	return keys
}

// Map returns the record as a plain map.
func (r OutputRecord) Map() map[string]any {
	m := make(map[string]any, len(r.Extra)+2)
	m[IDField] = r.ID
	if r.Name != nil {
		m["name"] = *r.Name
	} else {
		m["name"] = nil
	}
	for _, f := range r.Extra {
		m[f.Key] = f.Value
	}
	return m
}

// Get returns the value stored under key.
func (r OutputRecord) Get(key string) (any, bool) {
	switch key {
	case IDField:
		return r.ID, true
	case "name":
		if r.Name == nil {
			return nil, true
		}
		return *r.Name, true
	}
	for _, f := range r.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler.
func (r OutputRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')

		v, _ := r.Get(key)
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TransformOptions carries the per-entity and per-request settings of
// TransformRecord.
type TransformOptions struct {
	// NameSource overrides NameFields: the listed fields are joined with
	// spaces.
	NameSource []string

	// Translatable reports fields holding per-locale JSON objects.
	Translatable func(field string) bool

	Locale         string
	FallbackLocale string
}

// TransformRecord shapes a fetched record. It never fails: missing and
// null fields are left out, and a name column that lost to another name
// source is dropped rather than repeated as an extra.
func TransformRecord(rec Record, selection []string, opts TransformOptions) OutputRecord {
	selected := make(map[string]bool, len(selection))
	for _, f := range selection {
		selected[f] = true
	}

	value := func(field string) (any, bool) {
		if !selected[field] {
			return nil, false
		}
		v, ok := rec[field]
		if !ok || v == nil {
			return nil, false
		}
		if opts.Translatable != nil && opts.Translatable(field) {
			v = Localize(v, opts.Locale, opts.FallbackLocale)
			return v, v != nil
		}
		return v, true
	}

	out := OutputRecord{ID: rec[IDField]}
	consumed := map[string]bool{}

	name, used := resolveName(value, opts.NameSource)
	out.Name = name
	for _, f := range used {
		consumed[f] = true
	}

	// id and name are reserved output keys.
	for _, f := range selection {
		if f == IDField || f == "name" || consumed[f] {
			continue
		}
		if v, ok := value(f); ok {
			out.Extra = append(out.Extra, Field{Key: f, Value: v})
		}
	}

	return out
}

// resolveName picks the display name and reports the fields it consumed.
func resolveName(value func(string) (any, bool), source []string) (*string, []string) {
	if len(source) > 0 {
		var parts, used []string
		for _, f := range source {
			if v, ok := value(f); ok {
				if s := toString(v); s != "" {
					parts = append(parts, s)
				}
				used = append(used, f)
			}
		}
		if len(parts) == 0 {
			return nil, used
		}
		name := strings.Join(parts, " ")
		return &name, used
	}

	for _, f := range NameFields {
		if v, ok := value(f); ok {
			name := toString(v)
			return &name, []string{f}
		}
	}

	first, okFirst := value("first_name")
	last, okLast := value("last_name")
	if okFirst && okLast {
		name := toString(first) + " " + toString(last)
		return &name, []string{"first_name", "last_name"}
	}

	return nil, nil
}

// Localize returns the value for locale from a per-locale JSON object,
// falling back to fallback and then to any non-empty translation. Values
// that are not per-locale objects are returned unchanged.
func Localize(v any, locale, fallback string) any {
	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case string:
		if !strings.HasPrefix(strings.TrimSpace(t), "{") || json.Unmarshal([]byte(t), &m) != nil {
			return v
		}
	case []byte:
		if json.Unmarshal(t, &m) != nil {
			return string(t)
		}
	default:
		return v
	}

	for _, loc := range []string{locale, fallback} {
		if loc == "" {
			continue
		}
		if s, ok := m[loc]; ok && s != nil && s != "" {
			return s
		}
	}
	// Deterministic pick when neither locale is present.
	best := ""
	for loc, s := range m {
		if s != nil && s != "" && (best == "" || loc < best) {
			best = loc
		}
	}
	if best != "" {
		return m[best]
	}
	return nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}
