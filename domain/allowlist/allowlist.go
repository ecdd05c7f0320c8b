// Package allowlist decides which configuration values may be exposed.
//
// A namespace absent from the list is fully denied. A namespace mapped to
// an empty key set exposes its whole tree; otherwise only the listed keys
// are ever returned.
package allowlist

// List maps a permitted namespace to its permitted keys. An empty slice
// permits every key of the namespace.
type List map[string][]string

// Decision is the outcome of checking one request item.
type Decision struct {
	// Allowed is false when the namespace is not listed or no requested
	// key survives the intersection.
	Allowed bool

	// All means the whole namespace tree may be returned.
	All bool

	// Keys are the keys to return when All is false, in request order
	// (or allow-list order when no keys were requested).
	Keys []string
}

// Check decides what a request for namespace may see. requested is the
// caller's key list; hasKeys distinguishes an omitted list from an empty
// one. Requested keys only narrow restricted namespaces.
func (l List) Check(namespace string, requested []string, hasKeys bool) Decision {
	permitted, ok := l[namespace]
	if !ok {
		return Decision{}
	}

	if len(permitted) == 0 {
		return Decision{Allowed: true, All: true}
	}

	if !hasKeys {
		return Decision{Allowed: true, Keys: dedupe(permitted)}
	}

	set := make(map[string]bool, len(permitted))
	for _, k := range permitted {
		set[k] = true
	}
	var keys []string
	for _, k := range dedupe(requested) {
		if set[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return Decision{}
	}
	return Decision{Allowed: true, Keys: keys}
}

// Namespaces returns the listed namespaces.
func (l List) Namespaces() []string {
	out := make([]string, 0, len(l))
	for ns := range l {
		out = append(out, ns)
	}
	return out
}

// Filter applies a decision to a resolved namespace tree. The result never
// holds a key the decision does not permit; keys absent from tree are
// left out.
func Filter(d Decision, tree map[string]any, get func(tree map[string]any, key string) (any, bool)) map[string]any {
	out := map[string]any{}
	if !d.Allowed {
		return out
	}
	if d.All {
		for k, v := range tree {
			out[k] = v
		}
		return out
	}
	for _, k := range d.Keys {
		if v, ok := get(tree, k); ok {
			out[k] = v
		}
	}
	return out
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
