package convention

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical maps a request identifier ("order_items", "Roles") to the
// registry form of an entity name: lower snake case with every segment
// singularized ("order_item", "role").
func Canonical(name string) string {
	parts := strings.Split(Snake(name), "_")
	out := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, strings.ToLower(Singularize(p)))
	}
	return strings.Join(out, "_")
}

// Studly converts a snake_case identifier to capitalized camel case
// ("order_item" -> "OrderItem").
func Studly(name string) string {
	var b strings.Builder
	for _, p := range strings.FieldsFunc(name, isSeparator) {
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// Snake converts an identifier to snake_case. Word boundaries are case
// changes, spaces, hyphens and underscores; acronyms stay together
// ("HTTPServer" -> "http_server", "PENDING" -> "pending").
func Snake(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if r == ' ' || r == '-' || r == '_' {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				if !strings.HasSuffix(b.String(), "_") {
					b.WriteByte('_')
				}
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSuffix(b.String(), "_")
}

// EnumKey normalizes a dotted enum name ("Order.StatusEnum",
// "order.status") to its registry key ("order.status").
func EnumKey(name string) string {
	segs := strings.Split(name, ".")
	out := segs[:0]
	for _, s := range segs {
		if s = Snake(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return ""
	}
	last := len(out) - 1
	if trimmed := strings.TrimSuffix(out[last], "_enum"); trimmed != "" {
		out[last] = trimmed
	}
	return strings.Join(out, ".")
}

// EnumKeyFromPath derives an enum key from a slash separated path relative
// to a scan root ("order/StatusEnum.yaml" -> "order.status").
func EnumKeyFromPath(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return EnumKey(strings.ReplaceAll(rel, "/", "."))
}

// Headline turns an identifier into a title ("order_item" -> "Order Item").
func Headline(name string) string {
	words := strings.ReplaceAll(Snake(name), "_", " ")
	return cases.Title(language.English).String(words)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}
