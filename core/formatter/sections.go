package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Section is one tabular block of a result: a requested table, enum or
// config namespace.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]any

	// Footer carries pagination details, empty otherwise.
	Footer string
}

// Sections flattens a result into tabular blocks. Keys keep the order
// they have in the JSON encoding of result.
func Sections(result any, columns []string) ([]Section, error) {
	root, err := decodeResult(result)
	if err != nil {
		return nil, err
	}

	var out []Section
	switch v := root.(type) {
	case []any:
		out = append(out, listSection("", v))
	case *object:
		for _, key := range v.keys {
			out = append(out, valueSection(key, v.values[key]))
		}
	default:
		out = append(out, Section{Columns: []string{"value"}, Rows: [][]any{{v}}})
	}

	if len(columns) > 0 {
		for i := range out {
			out[i] = out[i].only(columns)
		}
	}
	return out, nil
}

func valueSection(title string, v any) Section {
	switch val := v.(type) {
	case []any:
		return listSection(title, val)
	case *object:
		if data, ok := val.values["data"].([]any); ok {
			if meta, ok := val.values["meta"].(*object); ok {
				s := listSection(title, data)
				s.Footer = pageFooter(meta)
				return s
			}
		}
		s := Section{Title: title, Columns: []string{"key", "value"}}
		for _, key := range val.keys {
			s.Rows = append(s.Rows, []any{key, val.values[key]})
		}
		return s
	default:
		return Section{Title: title, Columns: []string{"value"}, Rows: [][]any{{val}}}
	}
}

// listSection builds rows from a list of objects, using the union of their
// keys in first-seen order. Lists of scalars become a single value column.
func listSection(title string, items []any) Section {
	s := Section{Title: title}

	seen := map[string]bool{}
	for _, item := range items {
		obj, ok := item.(*object)
		if !ok {
			s.Columns = []string{"value"}
			for _, item := range items {
				s.Rows = append(s.Rows, []any{item})
			}
			return s
		}
		for _, key := range obj.keys {
			if !seen[key] {
				seen[key] = true
				s.Columns = append(s.Columns, key)
			}
		}
	}

	for _, item := range items {
		obj := item.(*object)
		row := make([]any, len(s.Columns))
		for i, col := range s.Columns {
			row[i] = obj.values[col]
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func pageFooter(meta *object) string {
	get := func(key string) string {
		if v, ok := meta.values[key]; ok {
			return cellString(v, 0)
		}
		return "?"
	}
	return fmt.Sprintf("page %s of %s (%s total, %s per page)",
		get("page"), get("pages"), get("total"), get("per_page"))
}

// only keeps the requested columns that the section has, in request order.
func (s Section) only(columns []string) Section {
	index := make(map[string]int, len(s.Columns))
	for i, col := range s.Columns {
		index[col] = i
	}

	var keep []int
	var names []string
	for _, col := range columns {
		if i, ok := index[col]; ok {
			keep = append(keep, i)
			names = append(names, col)
		}
	}
	if len(keep) == 0 {
		return s
	}

	out := Section{Title: s.Title, Columns: names, Footer: s.Footer}
	for _, row := range s.Rows {
		picked := make([]any, len(keep))
		for j, i := range keep {
			picked[j] = row[i]
		}
		out.Rows = append(out.Rows, picked)
	}
	return out
}

// cellString renders a decoded value for a text cell.
func cellString(v any, maxWidth int) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = ""
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		if val {
			s = "true"
		} else {
			s = "false"
		}
	default:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(data)
		}
	}

	if maxWidth > 3 && len(s) > maxWidth {
		s = s[:maxWidth-3] + "..."
	}
	return s
}

// object is a JSON object that remembers key order.
type object struct {
	keys   []string
	values map[string]any
}

// MarshalJSON writes the keys in their original order.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeResult encodes result as JSON and decodes it back into ordered
// objects, lists and scalars (numbers stay json.Number).
func decodeResult(result any) (any, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &object{values: map[string]any{}}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected key %v", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		list := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %s", strings.TrimSpace(delim.String()))
}
