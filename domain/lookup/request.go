// Package lookup provides the pure request model and record shaping of the
// lookup API. All functions are deterministic with no side effects.
package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which lookup a request asks for.
type Kind string

const (
	KindTables  Kind = "tables"
	KindEnums   Kind = "enums"
	KindConfigs Kind = "configs"
)

// Request is a decoded lookup request. Exactly one kind is active.
// A nil slice for the active kind selects the default mode (catalog for
// tables, every registered enum for enums).
type Request struct {
	Kind    Kind
	Tables  []TableSpec
	Enums   []EnumSpec
	Configs []ConfigSpec
}

// TableSpec asks for the records of one entity.
type TableSpec struct {
	Name     string      `json:"name"`
	Module   string      `json:"module,omitempty"`
	Extra    StringList  `json:"extra,omitempty"`
	Scopes   Scopes      `json:"scopes,omitempty"`
	Values   ScopeValues `json:"values,omitempty"`
	Search   Search      `json:"search,omitempty"`
	Paginate bool        `json:"paginate,omitempty"`
	PerPage  int         `json:"per_page,omitempty"`
	Page     int         `json:"page,omitempty"`

	// BaseURL, when set, adds navigation links to a paginated result.
	BaseURL string `json:"-"`
}

// EnumSpec asks for one enumeration.
type EnumSpec struct {
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`
	Method string `json:"method,omitempty"`
}

// ConfigSpec asks for one configuration namespace.
type ConfigSpec struct {
	Name string     `json:"name"`
	Keys StringList `json:"keys,omitempty"`

	// HasKeys distinguishes an omitted keys list from an empty one.
	HasKeys bool `json:"-"`
}

// ParseRequest decodes and validates a lookup request body.
func ParseRequest(data []byte) (Request, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Request{}, fmt.Errorf("%w: body must be a JSON object", ErrValidation)
	}

	var present []Kind
	for _, k := range []Kind{KindTables, KindEnums, KindConfigs} {
		if _, ok := top[string(k)]; ok {
			present = append(present, k)
		}
	}
	switch len(present) {
	case 0:
		return Request{}, fmt.Errorf("%w: one of tables, enums or configs is required", ErrValidation)
	case 1:
	default:
		return Request{}, fmt.Errorf("%w: only one of tables, enums or configs may be given", ErrValidation)
	}

	req := Request{Kind: present[0]}
	raw := top[string(req.Kind)]

	if isNull(raw) {
		if req.Kind == KindConfigs {
			return Request{}, fmt.Errorf("%w: the configs key is required and must be a non-empty array", ErrValidation)
		}
		return req, nil
	}

	items, err := splitArray(req.Kind, raw)
	if err != nil {
		return Request{}, err
	}

	switch req.Kind {
	case KindTables:
		req.Tables, err = decodeTables(items)
	case KindEnums:
		req.Enums, err = decodeEnums(items)
	case KindConfigs:
		req.Configs, err = decodeConfigs(items)
	}
	if err != nil {
		return Request{}, err
	}

	return req, nil
}

func splitArray(kind Kind, raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: the %s key must be an array", ErrValidation, kind)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: the %s key must be a non-empty array", ErrValidation, kind)
	}
	for i, item := range items {
		if !isObject(item) {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", ErrValidation, kind, i)
		}
	}
	return items, nil
}

func decodeTables(items []json.RawMessage) ([]TableSpec, error) {
	specs := make([]TableSpec, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &specs[i]); err != nil {
			return nil, fmt.Errorf("%w: tables[%d]: %v", ErrValidation, i, err)
		}
		if strings.TrimSpace(specs[i].Name) == "" {
			return nil, fmt.Errorf("%w: tables[%d].name is required", ErrValidation, i)
		}
		if specs[i].PerPage < 0 || specs[i].Page < 0 {
			return nil, fmt.Errorf("%w: tables[%d]: page and per_page must be positive", ErrValidation, i)
		}
	}
	return specs, nil
}

func decodeEnums(items []json.RawMessage) ([]EnumSpec, error) {
	specs := make([]EnumSpec, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &specs[i]); err != nil {
			return nil, fmt.Errorf("%w: enums[%d]: %v", ErrValidation, i, err)
		}
		if strings.TrimSpace(specs[i].Name) == "" {
			return nil, fmt.Errorf("%w: enums[%d].name is required", ErrValidation, i)
		}
	}
	return specs, nil
}

// decodeConfigs keeps items without a name; the config gate skips them.
func decodeConfigs(items []json.RawMessage) ([]ConfigSpec, error) {
	specs := make([]ConfigSpec, len(items))
	for i, item := range items {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err != nil {
			return nil, fmt.Errorf("%w: configs[%d]: %v", ErrValidation, i, err)
		}
		if err := json.Unmarshal(item, &specs[i]); err != nil {
			return nil, fmt.Errorf("%w: configs[%d]: %v", ErrValidation, i, err)
		}
		if keys, ok := probe["keys"]; ok && !isNull(keys) {
			specs[i].HasKeys = true
		}
	}
	return specs, nil
}

// StringList accepts either a single string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*l = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	*l = many
	return nil
}

// Search is a free-text filter: either a bare term or {term, fields}.
type Search struct {
	Term   string
	Fields []string
}

// Active reports whether the search has a non-empty term.
func (s Search) Active() bool {
	return strings.TrimSpace(s.Term) != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Search) UnmarshalJSON(data []byte) error {
	*s = Search{}
	if isNull(data) {
		return nil
	}
	var term string
	if err := json.Unmarshal(data, &term); err == nil {
		s.Term = term
		return nil
	}
	var obj struct {
		Term   string     `json:"term"`
		Fields StringList `json:"fields"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("search must be a string or {term, fields}")
	}
	s.Term = obj.Term
	s.Fields = obj.Fields
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func isObject(data []byte) bool {
	d := bytes.TrimSpace(data)
	return len(d) > 0 && d[0] == '{'
}
