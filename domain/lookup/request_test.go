package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an object", `[1,2]`},
		{"no key", `{}`},
		{"two keys", `{"tables":[{"name":"role"}],"enums":[{"name":"x"}]}`},
		{"empty tables", `{"tables":[]}`},
		{"tables not array", `{"tables":"role"}`},
		{"non-object item", `{"tables":["role"]}`},
		{"missing table name", `{"tables":[{"extra":["code"]}]}`},
		{"missing enum name", `{"enums":[{"method":"values"}]}`},
		{"null configs", `{"configs":null}`},
		{"empty configs", `{"configs":[]}`},
		{"negative page", `{"tables":[{"name":"role","page":-1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "error %v is not ErrValidation", err)
		})
	}
}

func TestParseRequest_DefaultModes(t *testing.T) {
	req, err := ParseRequest([]byte(`{"tables":null}`))
	require.NoError(t, err)
	assert.Equal(t, KindTables, req.Kind)
	assert.Nil(t, req.Tables)

	req, err = ParseRequest([]byte(`{"enums":null}`))
	require.NoError(t, err)
	assert.Equal(t, KindEnums, req.Kind)
	assert.Nil(t, req.Enums)
}

func TestParseRequest_Tables(t *testing.T) {
	body := `{"tables":[{
		"name":"user",
		"module":"crm",
		"extra":"email",
		"scopes":["active",{"name":"of_type","args":"staff"}],
		"values":{"active":null},
		"search":{"term":"ann","fields":"email"},
		"paginate":true,
		"per_page":5,
		"page":2
	}]}`

	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)
	require.Len(t, req.Tables, 1)

	spec := req.Tables[0]
	assert.Equal(t, "user", spec.Name)
	assert.Equal(t, "crm", spec.Module)
	assert.Equal(t, StringList{"email"}, spec.Extra)
	require.Len(t, spec.Scopes, 2)
	assert.Equal(t, ScopeCall{Name: "active"}, spec.Scopes[0])
	assert.Equal(t, ScopeCall{Name: "of_type", Arg: "staff", HasArg: true}, spec.Scopes[1])
	assert.Equal(t, Search{Term: "ann", Fields: []string{"email"}}, spec.Search)
	assert.True(t, spec.Paginate)
	assert.Equal(t, 5, spec.PerPage)
	assert.Equal(t, 2, spec.Page)
}

func TestParseRequest_Configs(t *testing.T) {
	body := `{"configs":[{"name":"app","keys":["name"]},{"name":"mail"},{"keys":[]}]}`

	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)
	require.Len(t, req.Configs, 3)

	assert.True(t, req.Configs[0].HasKeys)
	assert.Equal(t, StringList{"name"}, req.Configs[0].Keys)
	assert.False(t, req.Configs[1].HasKeys)
	assert.Equal(t, "", req.Configs[2].Name)
	assert.True(t, req.Configs[2].HasKeys)
}

func TestSearch_Unmarshal(t *testing.T) {
	var spec TableSpec
	require.NoError(t, jsonUnmarshal(`{"name":"role","search":"adm"}`, &spec))
	assert.Equal(t, "adm", spec.Search.Term)
	assert.True(t, spec.Search.Active())

	spec = TableSpec{}
	require.NoError(t, jsonUnmarshal(`{"name":"role","search":"   "}`, &spec))
	assert.False(t, spec.Search.Active())
}
