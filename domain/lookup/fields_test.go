package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectFields(t *testing.T) {
	tests := []struct {
		name     string
		extra    []string
		columns  []string
		override []string
		source   []string
		want     []string
	}{
		{
			name:    "id and first display field",
			columns: []string{"id", "name", "title", "code"},
			want:    []string{"id", "title"},
		},
		{
			name:    "unknown extras dropped",
			extra:   []string{"code", "missing"},
			columns: []string{"id", "name", "code"},
			want:    []string{"id", "code", "name"},
		},
		{
			name:    "first name pulls last name",
			columns: []string{"id", "first_name", "last_name", "email"},
			want:    []string{"id", "first_name", "last_name"},
		},
		{
			name:    "first name alone",
			columns: []string{"id", "first_name"},
			want:    []string{"id", "first_name"},
		},
		{
			name:    "no display field",
			columns: []string{"id", "code"},
			want:    []string{"id"},
		},
		{
			name:     "override adds every present field",
			columns:  []string{"id", "name", "given", "family"},
			override: []string{"given", "family", "nickname"},
			want:     []string{"id", "given", "family"},
		},
		{
			name:    "name source outside display list",
			columns: []string{"id", "name", "code"},
			source:  []string{"code"},
			want:    []string{"id", "code"},
		},
		{
			name:     "name source wins over override",
			columns:  []string{"id", "name", "given", "code"},
			override: []string{"given"},
			source:   []string{"code", "missing"},
			want:     []string{"id", "code"},
		},
		{
			name:    "duplicates removed",
			extra:   []string{"id", "name", "name"},
			columns: []string{"id", "name"},
			want:    []string{"id", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectFields(tt.extra, tt.columns, tt.override, tt.source))
		})
	}
}

func TestSelectFields_Idempotent(t *testing.T) {
	columns := []string{"id", "label", "code", "status"}
	extra := []string{"status", "code"}

	first := SelectFields(extra, columns, nil, nil)
	second := SelectFields(first, columns, nil, nil)
	assert.Equal(t, first, second)

	ids := 0
	for _, f := range second {
		if f == IDField {
			ids++
		}
	}
	assert.Equal(t, 1, ids)
	assert.Equal(t, IDField, second[0])
}

func TestSearchFields(t *testing.T) {
	selection := []string{"id", "name", "code"}
	columns := []string{"id", "name", "code", "email"}

	assert.Equal(t, []string{"name", "code"}, SearchFields(Search{Term: "a"}, selection, columns))
	assert.Equal(t, []string{"email"}, SearchFields(Search{Term: "a", Fields: []string{"email", "nope", "email"}}, selection, columns))
	assert.Empty(t, SearchFields(Search{Term: "a", Fields: []string{"nope"}}, selection, columns))
}
