package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/core/storage"
	"github.com/artpar/lookup/domain/enum"
	"github.com/artpar/lookup/domain/lookup"
)

// Helper function to create a simple test entity
func makeTestEntity(name, namespace string) schema.Entity {
	return schema.Entity{
		Name:      name,
		Namespace: namespace,
		Table:     namespace + name + "s",
		Schema: map[string]schema.Field{
			"name":   {Type: schema.FieldTypeString},
			"status": {Type: schema.FieldTypeString},
		},
		Scopes: map[string]schema.Scope{
			"active":  {Field: "status", Op: schema.OpEq, Value: "active"},
			"of_name": {Field: "name", Op: schema.OpLike},
		},
	}
}

func TestEntities_RegisterAndLookup(t *testing.T) {
	r := NewEntities()
	if _, err := r.Register(makeTestEntity("role", "")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, name := range []string{"role", "roles", "Roles"} {
		e, err := r.Lookup("", name)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
			continue
		}
		if e.Name != "role" {
			t.Errorf("Lookup(%q).Name = %q, want role", name, e.Name)
		}
	}
}

func TestEntities_LookupNotFound(t *testing.T) {
	r := NewEntities()
	_, err := r.Lookup("", "ghosts")
	if !errors.Is(err, lookup.ErrNotFound) {
		t.Errorf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestEntities_ModulesDoNotCollide(t *testing.T) {
	r := NewEntities()
	if _, err := r.Register(makeTestEntity("role", "")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(makeTestEntity("role", "crm")); err != nil {
		t.Fatal(err)
	}

	plain, _ := r.Lookup("", "roles")
	crm, _ := r.Lookup("crm", "roles")
	if plain == nil || crm == nil {
		t.Fatal("expected both entities to resolve")
	}
	if plain.Table == crm.Table {
		t.Errorf("both resolved to table %q", plain.Table)
	}
	if _, err := r.Lookup("billing", "roles"); !errors.Is(err, lookup.ErrNotFound) {
		t.Errorf("Lookup(billing) error = %v, want ErrNotFound", err)
	}
}

func TestEntities_RegisterConflicts(t *testing.T) {
	r := NewEntities()
	if _, err := r.Register(makeTestEntity("role", "")); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Register(makeTestEntity("role", "")); err == nil {
		t.Error("second Register() should fail with duplicate name")
	}

	other := makeTestEntity("group", "")
	other.Table = "roles"
	if _, err := r.Register(other); err == nil {
		t.Error("Register() should fail when the table is already claimed")
	}
}

func TestEntities_List(t *testing.T) {
	r := NewEntities()
	for _, n := range []string{"zone", "account", "member"} {
		if _, err := r.Register(makeTestEntity(n, "")); err != nil {
			t.Fatal(err)
		}
	}

	list := r.List()
	if len(list) != 3 || r.Len() != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	if list[0].Name != "account" || list[2].Name != "zone" {
		t.Errorf("List() order = %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}
}

// -----------------------------------------------------------------------------
// Scopes
// -----------------------------------------------------------------------------

func TestDeclaredScopes(t *testing.T) {
	r := NewEntities()
	e, err := r.Register(makeTestEntity("role", ""))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("fixed value", func(t *testing.T) {
		fn, ok := e.Scope("active")
		if !ok {
			t.Fatal("scope active not found")
		}
		q := storage.NewQuery("roles").Select("id")
		if err := fn(q, nil, false); err != nil {
			t.Fatalf("scope error = %v", err)
		}
		c := q.Where[0].Any[0]
		if c.Field != "status" || c.Value != "active" {
			t.Errorf("condition = %+v", c)
		}
	})

	t.Run("like argument", func(t *testing.T) {
		fn, _ := e.Scope("of_name")
		q := storage.NewQuery("roles").Select("id")
		if err := fn(q, "adm", true); err != nil {
			t.Fatalf("scope error = %v", err)
		}
		if got := q.Where[0].Any[0].Value; got != "%adm%" {
			t.Errorf("value = %v, want %%adm%%", got)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		fn, _ := e.Scope("of_name")
		err := fn(storage.NewQuery("roles"), nil, false)
		if !errors.Is(err, ErrMissingArgument) {
			t.Errorf("error = %v, want ErrMissingArgument", err)
		}
	})
}

func TestExcludeRootScope(t *testing.T) {
	ent := makeTestEntity("admin", "")
	ent.Schema["is_root"] = schema.Field{Type: schema.FieldTypeBool}
	ent.Root = &schema.Root{Field: "is_root"}

	r := NewEntities()
	e, err := r.Register(ent)
	if err != nil {
		t.Fatal(err)
	}

	fn, ok := e.Scope(schema.ExcludeRootScope)
	if !ok {
		t.Fatal("exclude_root not derived")
	}
	q := storage.NewQuery("admins").Select("id")
	if err := fn(q, nil, false); err != nil {
		t.Fatal(err)
	}
	c := q.Where[0].Any[0]
	if c.Op != schema.OpNe || c.Value != true {
		t.Errorf("condition = %+v", c)
	}
}

func TestRegisterScope(t *testing.T) {
	r := NewEntities()
	e, _ := r.Register(makeTestEntity("role", ""))

	called := false
	err := r.RegisterScope("", "roles", "custom", func(q *storage.Query, arg any, hasArg bool) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterScope() error = %v", err)
	}

	fn, ok := e.Scope("custom")
	if !ok {
		t.Fatal("custom scope not found")
	}
	_ = fn(storage.NewQuery("roles"), nil, false)
	if !called {
		t.Error("custom scope was not called")
	}

	if err := r.RegisterScope("", "ghost", "x", nil); !errors.Is(err, lookup.ErrNotFound) {
		t.Errorf("RegisterScope(ghost) error = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// Enums
// -----------------------------------------------------------------------------

func testEnum(key string) *enum.Definition {
	return enum.FromSchema(schema.Enum{
		Key:   key,
		Cases: []schema.EnumCase{{Name: "PENDING", Value: 0}},
	})
}

func TestEnums_RegisterAndLookup(t *testing.T) {
	r := NewEnums()
	if err := r.Register("", "order.status", testEnum("order.status")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("shop", "Order.StatusEnum", testEnum("order.status")); err != nil {
		t.Fatal(err)
	}

	e, err := r.Lookup("", "order.status")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if e.Key != "order.status" || e.Module != "" {
		t.Errorf("Lookup() = %+v", e)
	}

	e, err = r.Lookup("shop", "order.status")
	if err != nil || e.Module != "shop" {
		t.Errorf("Lookup(shop) = %+v, %v", e, err)
	}

	if _, err := r.Lookup("", "order.missing"); !errors.Is(err, lookup.ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrNotFound", err)
	}

	if err := r.Register("", "order.status", testEnum("x")); err == nil {
		t.Error("duplicate Register() should fail")
	}

	list := r.List()
	if len(list) != 2 || list[0].Module != "" || list[1].Module != "shop" {
		t.Errorf("List() = %+v", list)
	}
}

// -----------------------------------------------------------------------------
// Directory loading
// -----------------------------------------------------------------------------

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEntitiesAndEnums(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "entities", "role.yaml"), `
entity: role
schema:
  name: { type: string }
`)
	writeFile(t, filepath.Join(root, "modules", "Crm", "entities", "lead.yaml"), `
entity: lead
schema:
  name: { type: string }
`)
	writeFile(t, filepath.Join(root, "enums", "order", "StatusEnum.yaml"), `
cases:
  - { name: PENDING, value: 0 }
  - { name: DONE, value: 1 }
`)
	writeFile(t, filepath.Join(root, "modules", "Crm", "enums", "LeadSource.yml"), `
cases:
  - { name: Web, value: web }
`)

	entities := NewEntities()
	n, err := LoadEntities(entities, filepath.Join(root, "entities"), filepath.Join(root, "modules"))
	if err != nil {
		t.Fatalf("LoadEntities() error = %v", err)
	}
	if n != 2 {
		t.Errorf("LoadEntities() = %d, want 2", n)
	}
	if _, err := entities.Lookup("crm", "leads"); err != nil {
		t.Errorf("Lookup(crm, leads) error = %v", err)
	}

	enums := NewEnums()
	n, err = LoadEnums(enums, filepath.Join(root, "enums"), filepath.Join(root, "modules"))
	if err != nil {
		t.Fatalf("LoadEnums() error = %v", err)
	}
	if n != 2 {
		t.Errorf("LoadEnums() = %d, want 2", n)
	}
	if _, err := enums.Lookup("", "order.status"); err != nil {
		t.Errorf("Lookup(order.status) error = %v", err)
	}
	if _, err := enums.Lookup("crm", "lead_source"); err != nil {
		t.Errorf("Lookup(crm, lead_source) error = %v", err)
	}
}

func TestLoadMissingDirs(t *testing.T) {
	n, err := LoadEnums(NewEnums(), "/does/not/exist", "/nor/this")
	if err != nil || n != 0 {
		t.Errorf("LoadEnums() = %d, %v, want 0, nil", n, err)
	}
}
