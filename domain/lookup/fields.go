package lookup

// IDField is the identifier column every selection starts with.
const IDField = "id"

// DisplayFields is the priority list used to pick the name column to fetch.
var DisplayFields = []string{"display_name", "title", "label", "name", "first_name", "last_name"}

// NameFields is the priority list used to derive a record's name.
var NameFields = []string{"name", "title", "display_name", "full_name", "label"}

// SelectFields returns the ordered, deduplicated list of columns to fetch:
// the identifier, the requested extras that exist, and the display name
// column(s). A name source takes precedence: its present fields are added
// and no display field is. override replaces DisplayFields; every present
// override field is added. Otherwise the first present display field wins,
// and first_name pulls last_name along when the entity has both.
func SelectFields(extra []string, columns []string, override []string, nameSource []string) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	sel := []string{IDField}
	seen := map[string]bool{IDField: true}
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			sel = append(sel, f)
		}
	}

	for _, f := range extra {
		if known[f] {
			add(f)
		}
	}

	if len(nameSource) > 0 {
		for _, f := range nameSource {
			if known[f] {
				add(f)
			}
		}
		return sel
	}

	if len(override) > 0 {
		for _, f := range override {
			if known[f] {
				add(f)
			}
		}
		return sel
	}

	for _, f := range DisplayFields {
		if !known[f] {
			continue
		}
		add(f)
		if f == "first_name" && known["last_name"] {
			add("last_name")
		}
		break
	}

	return sel
}

// SearchFields returns the columns a search runs over: the explicit fields
// that exist, or the selection without the identifier.
func SearchFields(s Search, selection []string, columns []string) []string {
	if len(s.Fields) == 0 {
		out := make([]string, 0, len(selection))
		for _, f := range selection {
			if f != IDField {
				out = append(out, f)
			}
		}
		return out
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range s.Fields {
		if known[f] && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
