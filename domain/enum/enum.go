// Package enum formats enumerations into the lookup entry shape.
//
// An enumeration is any Source: an ordered list of named cases with
// optional per-value side tables. Labels come from the translator under
// "enums.<key_name>.<snake_key>" and fall back to the snake key.
package enum

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/artpar/lookup/core/convention"
)

var (
	// ErrUnknownMethod is returned by Invoke for a method it does not know.
	ErrUnknownMethod = errors.New("unknown enum method")

	// ErrUnknownValue is returned by FormatWithExtra for a value no case
	// carries.
	ErrUnknownValue = errors.New("unknown enum value")
)

// Case is one named value of an enumeration.
type Case struct {
	Name  string
	Value any
}

// Source is an enumeration the lister can format.
type Source interface {
	// KeyName is the translation group of the enumeration.
	KeyName() string

	// Cases returns the cases in declaration order.
	Cases() []Case

	// Extra and Icon return the side-table value for a case value, or nil.
	Extra(value any) any
	Icon(value any) any
}

// Entry is one formatted case.
type Entry struct {
	Key      string `json:"key" yaml:"key"`
	Value    any    `json:"value" yaml:"value"`
	Label    string `json:"label" yaml:"label"`
	SnakeKey string `json:"snake_key" yaml:"snake_key"`
	Extra    any    `json:"extra" yaml:"extra"`
	Icon     any    `json:"icon" yaml:"icon"`
}

// TranslateFunc looks up a translation key. ok is false on a miss.
type TranslateFunc func(key string) (string, bool)

// LabelKey derives the translation key of a case. Numeric values use the
// case name (lowered when it is all caps or has underscores, snake cased
// otherwise); other values use the snake cased value.
func LabelKey(key string, value any) string {
	if isNumeric(value) {
		if isUpper(key) || strings.Contains(key, "_") {
			return strings.ToLower(key)
		}
		return convention.Snake(key)
	}
	return convention.Snake(fmt.Sprint(value))
}

// Format builds the entry for one case.
func Format(src Source, c Case, translate TranslateFunc) Entry {
	return format(src, c, translate, src.Extra(c.Value))
}

// FormatWithExtra formats the cases whose values are keys of extras, in
// declaration order, with the caller's extra replacing the definition's.
// Keys are matched against case values by their printed form.
func FormatWithExtra(src Source, extras map[string]any, translate TranslateFunc) ([]Entry, error) {
	cases := src.Cases()
	byValue := make(map[string]Case, len(cases))
	for _, c := range cases {
		if _, ok := byValue[valueKey(c.Value)]; !ok {
			byValue[valueKey(c.Value)] = c
		}
	}
	for k := range extras {
		if _, ok := byValue[k]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownValue, k)
		}
	}

	out := make([]Entry, 0, len(extras))
	seen := make(map[string]bool, len(extras))
	for _, c := range cases {
		k := valueKey(c.Value)
		extra, ok := extras[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, format(src, c, translate, extra))
	}
	return out, nil
}

func format(src Source, c Case, translate TranslateFunc, extra any) Entry {
	labelKey := LabelKey(c.Name, c.Value)

	label := labelKey
	if translate != nil {
		if s, ok := translate("enums." + src.KeyName() + "." + labelKey); ok && s != "" {
			label = s
		}
	}

	return Entry{
		Key:      c.Name,
		Value:    c.Value,
		Label:    label,
		SnakeKey: labelKey,
		Extra:    extra,
		Icon:     src.Icon(c.Value),
	}
}

// List formats every case. Later cases with a value already seen replace
// nothing; the first declaration wins.
func List(src Source, translate TranslateFunc) []Entry {
	cases := src.Cases()
	out := make([]Entry, 0, len(cases))
	seen := make(map[string]bool, len(cases))
	for _, c := range cases {
		k := valueKey(c.Value)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Format(src, c, translate))
	}
	return out
}

// Values returns the raw case values.
func Values(src Source) []any {
	cases := src.Cases()
	out := make([]any, 0, len(cases))
	for _, c := range cases {
		out = append(out, c.Value)
	}
	return out
}

// Resolve maps a value or case name to its label (trans) or, when trans is
// false, a value to its snake key and a case name to its value. Unmatched
// input is returned unchanged.
func Resolve(src Source, value any, trans bool, translate TranslateFunc) any {
	entries := List(src, translate)
	want := valueKey(value)

	for _, e := range entries {
		if valueKey(e.Value) == want {
			if trans {
				return e.Label
			}
			return e.SnakeKey
		}
	}
	for _, e := range entries {
		if e.Key == want {
			if trans {
				return e.Label
			}
			return e.Value
		}
	}
	return value
}

// CommentFormat renders "value => label" pairs, comma separated.
func CommentFormat(src Source, translate TranslateFunc) string {
	entries := List(src, translate)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%v => %s", e.Value, e.Label))
	}
	return strings.Join(parts, ", ")
}

// Invoke runs a retrieval method by name. The empty name means list.
func Invoke(src Source, method string, translate TranslateFunc) (any, error) {
	switch strings.ToLower(method) {
	case "", "list", "getlist", "get_list":
		return List(src, translate), nil
	case "values":
		return Values(src), nil
	case "comment", "commentformat", "comment_format":
		return CommentFormat(src, translate), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

func valueKey(v any) string {
	return fmt.Sprint(v)
}

func isNumeric(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return err == nil
	}
	return false
}

// isUpper reports whether s is non-empty and made only of upper case
// letters.
func isUpper(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
