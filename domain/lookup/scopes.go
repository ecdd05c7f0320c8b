package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScopeCall is one requested scope with an optional inline argument.
type ScopeCall struct {
	Name   string
	Arg    any
	HasArg bool
}

// Scopes is the ordered list of requested scopes. It decodes from a single
// name, an array of names or {name, args} objects, or an object mapping
// names to arguments (key order is kept).
type Scopes []ScopeCall

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scopes) UnmarshalJSON(data []byte) error {
	*s = nil
	d := bytes.TrimSpace(data)
	if len(d) == 0 || isNull(d) {
		return nil
	}

	switch d[0] {
	case '"':
		var name string
		if err := json.Unmarshal(d, &name); err != nil {
			return err
		}
		*s = Scopes{{Name: name}}
		return nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(d, &items); err != nil {
			return err
		}
		calls := make(Scopes, 0, len(items))
		for i, item := range items {
			call, err := decodeScopeItem(item)
			if err != nil {
				return fmt.Errorf("scopes[%d]: %w", i, err)
			}
			calls = append(calls, call)
		}
		*s = calls
		return nil

	case '{':
		calls, err := decodeOrderedObject(d)
		if err != nil {
			return err
		}
		*s = calls
		return nil
	}

	return fmt.Errorf("scopes must be a string, an array or an object")
}

func decodeScopeItem(item json.RawMessage) (ScopeCall, error) {
	var name string
	if err := json.Unmarshal(item, &name); err == nil {
		return ScopeCall{Name: name}, nil
	}

	var obj struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(item, &obj); err != nil || obj.Name == "" {
		return ScopeCall{}, fmt.Errorf("expected a scope name or {name, args}")
	}

	call := ScopeCall{Name: obj.Name}
	if len(obj.Args) > 0 && !isNull(obj.Args) {
		if err := json.Unmarshal(obj.Args, &call.Arg); err != nil {
			return ScopeCall{}, err
		}
		call.HasArg = true
	}
	return call, nil
}

// decodeOrderedObject reads {"name": args, ...} keeping key order.
func decodeOrderedObject(data []byte) (Scopes, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var calls Scopes
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("scope name must be a string")
		}

		var arg any
		if err := dec.Decode(&arg); err != nil {
			return nil, fmt.Errorf("scope %q: %w", name, err)
		}
		calls = append(calls, ScopeCall{Name: name, Arg: arg, HasArg: arg != nil})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return calls, nil
}

// ScopeValues holds scope arguments supplied next to the scope list,
// either by scope name (object) or by position (array).
type ScopeValues struct {
	ByName     map[string]any
	Positional []any
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *ScopeValues) UnmarshalJSON(data []byte) error {
	*v = ScopeValues{}
	d := bytes.TrimSpace(data)
	if len(d) == 0 || isNull(d) {
		return nil
	}
	switch d[0] {
	case '{':
		return json.Unmarshal(d, &v.ByName)
	case '[':
		return json.Unmarshal(d, &v.Positional)
	}
	return fmt.Errorf("values must be an array or an object")
}

// Arg returns the argument for the scope at index: the inline argument
// first, then a value keyed by scope name, then the positional value.
// Null arguments count as absent.
func (v ScopeValues) Arg(call ScopeCall, index int) (any, bool) {
	if call.HasArg && call.Arg != nil {
		return call.Arg, true
	}
	if a, ok := v.ByName[call.Name]; ok && a != nil {
		return a, true
	}
	if index >= 0 && index < len(v.Positional) && v.Positional[index] != nil {
		return v.Positional[index], true
	}
	return nil, false
}
