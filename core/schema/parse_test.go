package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseEntity(t *testing.T) {
	yaml := `
entity: role

schema:
  name:    { type: string }
  is_root: { type: bool, default: false }
  title:   { type: json, translatable: true }

root: { field: is_root }

scopes:
  named:  { field: name, op: eq }
  active: { field: is_root, op: eq, value: false }
`

	ent, err := ParseEntity([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseEntity failed: %v", err)
	}

	if ent.Name != "role" {
		t.Errorf("Name = %q, want %q", ent.Name, "role")
	}
	if len(ent.Schema) != 3 {
		t.Errorf("Schema has %d fields, want 3", len(ent.Schema))
	}
	if !ent.Schema["title"].Translatable {
		t.Error("title should be translatable")
	}
	if ent.Root == nil || ent.Root.Field != "is_root" {
		t.Errorf("Root = %+v, want is_root", ent.Root)
	}
	if ent.Scopes["named"].Op != OpEq {
		t.Errorf("named op = %q, want eq", ent.Scopes["named"].Op)
	}
	if ent.Scopes["active"].Value != false {
		t.Errorf("active value = %v, want false", ent.Scopes["active"].Value)
	}
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid minimal",
			yaml: `
entity: tag
schema:
  name: { type: string }
`,
		},
		{
			name: "missing entity name",
			yaml: `
schema:
  name: { type: string }
`,
			wantErr: "entity name is required",
		},
		{
			name: "empty schema",
			yaml: `
entity: tag
`,
			wantErr: "at least one field",
		},
		{
			name: "unknown field type",
			yaml: `
entity: tag
schema:
  name: { type: blob }
`,
			wantErr: "unknown type",
		},
		{
			name: "translatable non-json",
			yaml: `
entity: tag
schema:
  name: { type: string, translatable: true }
`,
			wantErr: "translatable requires type json",
		},
		{
			name: "root field missing",
			yaml: `
entity: user
schema:
  name: { type: string }
root: { field: is_root }
`,
			wantErr: "root field",
		},
		{
			name: "scope on unknown field",
			yaml: `
entity: tag
schema:
  name: { type: string }
scopes:
  bad: { field: status, op: eq }
`,
			wantErr: "not in schema",
		},
		{
			name: "scope with unknown op",
			yaml: `
entity: tag
schema:
  name: { type: string }
scopes:
  bad: { field: name, op: between }
`,
			wantErr: "unknown op",
		},
		{
			name: "scope on implicit column",
			yaml: `
entity: tag
schema:
  name: { type: string }
scopes:
  recent: { field: created_at, op: gt }
`,
		},
		{
			name: "invalid table",
			yaml: `
entity: tag
table: "tags; drop"
schema:
  name: { type: string }
`,
			wantErr: "not a valid identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntity([]byte(tt.yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseEnumDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "order", "status_enum.yaml"), `
cases:
  - { name: PENDING, value: 0 }
  - { name: DONE, value: 1 }
icons:
  1: check
`)
	writeFile(t, filepath.Join(dir, "gender.yaml"), `
enum: people.gender
cases:
  - { name: Male, value: male }
`)
	writeFile(t, filepath.Join(dir, ".hidden", "skip.yaml"), `cases: []`)
	writeFile(t, filepath.Join(dir, "README.md"), `not yaml`)

	enums, err := ParseEnumDir(dir, func(rel string) string { return rel })
	if err != nil {
		t.Fatalf("ParseEnumDir failed: %v", err)
	}
	if len(enums) != 2 {
		t.Fatalf("got %d enums, want 2", len(enums))
	}

	keys := map[string]Enum{}
	for _, e := range enums {
		keys[e.Key] = e
	}
	status, ok := keys["order/status_enum.yaml"]
	if !ok {
		t.Fatalf("derived key missing, got %v", keys)
	}
	if status.Icons["1"] != "check" {
		t.Errorf("icons[1] = %v, want check", status.Icons["1"])
	}
	if _, ok := keys["people.gender"]; !ok {
		t.Error("explicit key should win over derived key")
	}
}

func TestValidateEnum_DuplicateValue(t *testing.T) {
	err := ValidateEnum(Enum{
		Key: "dup",
		Cases: []EnumCase{
			{Name: "A", Value: 1},
			{Name: "B", Value: 1},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate value") {
		t.Errorf("err = %v, want duplicate value", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
