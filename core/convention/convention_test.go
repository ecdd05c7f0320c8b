package convention

import (
	"testing"

	"github.com/artpar/lookup/core/schema"
)

// -----------------------------------------------------------------------------
// Derive function tests
// -----------------------------------------------------------------------------

func TestDerive_MinimalEntity(t *testing.T) {
	ent := schema.Entity{
		Name:   "role",
		Schema: map[string]schema.Field{"name": {Type: schema.FieldTypeString}},
	}

	d := Derive(ent)

	if d.Name != "role" {
		t.Errorf("Name = %q, want role", d.Name)
	}
	if d.Model != "Role" {
		t.Errorf("Model = %q, want Role", d.Model)
	}
	if d.Table != "roles" {
		t.Errorf("Table = %q, want roles", d.Table)
	}
	if d.Qualified() != "role" {
		t.Errorf("Qualified = %q, want role", d.Qualified())
	}

	// id, name, created_at, updated_at
	if len(d.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(d.Fields))
	}
	if d.Fields[0].Name != "id" || d.Fields[0].SQLType != "TEXT" {
		t.Errorf("first field = %+v, want TEXT id", d.Fields[0])
	}
	if len(d.Scopes) != 0 {
		t.Errorf("expected no scopes, got %v", d.Scopes)
	}
}

func TestDerive_NamespacedEntity(t *testing.T) {
	d := Derive(schema.Entity{
		Name:      "order_items",
		Namespace: "Billing",
		Schema:    map[string]schema.Field{"sku": {Type: schema.FieldTypeString}},
	})

	if d.Name != "order_item" {
		t.Errorf("Name = %q, want order_item", d.Name)
	}
	if d.Module != "billing" {
		t.Errorf("Module = %q, want billing", d.Module)
	}
	if d.Model != "OrderItem" {
		t.Errorf("Model = %q, want OrderItem", d.Model)
	}
	if d.Table != "order_items" {
		t.Errorf("Table = %q, want order_items", d.Table)
	}
	if d.Qualified() != "billing.order_item" {
		t.Errorf("Qualified = %q, want billing.order_item", d.Qualified())
	}
}

func TestDerive_TableOverride(t *testing.T) {
	d := Derive(schema.Entity{
		Name:   "person",
		Table:  "staff",
		Schema: map[string]schema.Field{"name": {Type: schema.FieldTypeString}},
	})
	if d.Table != "staff" {
		t.Errorf("Table = %q, want staff", d.Table)
	}
}

func TestDerive_IntegerID(t *testing.T) {
	d := Derive(schema.Entity{
		Name: "tag",
		Schema: map[string]schema.Field{
			"id":   {Type: schema.FieldTypeInt},
			"name": {Type: schema.FieldTypeString},
		},
	})

	if d.Fields[0].SQLType != "INTEGER" {
		t.Errorf("id SQLType = %q, want INTEGER", d.Fields[0].SQLType)
	}
	count := 0
	for _, f := range d.Fields {
		if f.Name == "id" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("id appears %d times, want 1", count)
	}
}

func TestDerive_FieldsSorted(t *testing.T) {
	d := Derive(schema.Entity{
		Name: "item",
		Schema: map[string]schema.Field{
			"zeta":  {Type: schema.FieldTypeString},
			"alpha": {Type: schema.FieldTypeString},
			"mid":   {Type: schema.FieldTypeInt},
		},
	})

	want := []string{"id", "alpha", "mid", "zeta", "created_at", "updated_at"}
	if len(d.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(d.Fields), len(want))
	}
	for i, name := range want {
		if d.Fields[i].Name != name {
			t.Errorf("Fields[%d] = %q, want %q", i, d.Fields[i].Name, name)
		}
	}
}

func TestDerive_Translatable(t *testing.T) {
	d := Derive(schema.Entity{
		Name: "country",
		Schema: map[string]schema.Field{
			"name": {Type: schema.FieldTypeJSON, Translatable: true},
			"code": {Type: schema.FieldTypeString},
		},
	})

	if len(d.Translatable) != 1 || d.Translatable[0] != "name" {
		t.Errorf("Translatable = %v, want [name]", d.Translatable)
	}
	if !d.IsTranslatable("name") {
		t.Error("name should be translatable")
	}
	if d.IsTranslatable("code") || d.IsTranslatable("missing") {
		t.Error("code and missing should not be translatable")
	}
	if d.Table != "countries" {
		t.Errorf("Table = %q, want countries", d.Table)
	}
}

func TestDerive_RootAddsExcludeScope(t *testing.T) {
	d := Derive(schema.Entity{
		Name: "user",
		Schema: map[string]schema.Field{
			"name":    {Type: schema.FieldTypeString},
			"is_root": {Type: schema.FieldTypeBool},
		},
		Root: &schema.Root{Field: "is_root"},
		Scopes: map[string]schema.Scope{
			"named": {Field: "name", Op: schema.OpEq},
		},
	})

	sc, ok := d.Scopes[schema.ExcludeRootScope]
	if !ok {
		t.Fatal("exclude_root scope missing")
	}
	if sc.Field != "is_root" || sc.Op != schema.OpNe || sc.Value != true {
		t.Errorf("exclude_root = %+v", sc)
	}
	if _, ok := d.Scopes["named"]; !ok {
		t.Error("declared scope missing")
	}
}

// -----------------------------------------------------------------------------
// Naming tests (naming.go)
// -----------------------------------------------------------------------------

func TestCanonical(t *testing.T) {
	tests := []struct{ in, want string }{
		{"roles", "role"},
		{"role", "role"},
		{"order_items", "order_item"},
		{"categories", "category"},
		{"people", "person"},
		{"statuses", "status"},
		{"status", "status"},
		{"OrderItems", "order_item"},
		{"user_settings", "user_setting"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnake(t *testing.T) {
	tests := []struct{ in, want string }{
		{"StatusEnum", "status_enum"},
		{"PENDING", "pending"},
		{"IN_PROGRESS", "in_progress"},
		{"InProgress", "in_progress"},
		{"HTTPServer", "http_server"},
		{"already_snake", "already_snake"},
		{"two words", "two_words"},
		{"kebab-case", "kebab_case"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Snake(tt.in); got != tt.want {
				t.Errorf("Snake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStudly(t *testing.T) {
	tests := []struct{ in, want string }{
		{"order_item", "OrderItem"},
		{"role", "Role"},
		{"order.status", "OrderStatus"},
	}
	for _, tt := range tests {
		if got := Studly(tt.in); got != tt.want {
			t.Errorf("Studly(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnumKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"order.status", "order.status"},
		{"Order.StatusEnum", "order.status"},
		{"order.status_enum", "order.status"},
		{"gender", "gender"},
		{"enum", "enum"},
	}
	for _, tt := range tests {
		if got := EnumKey(tt.in); got != tt.want {
			t.Errorf("EnumKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnumKeyFromPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"order/status_enum.yaml", "order.status"},
		{"Order/StatusEnum.yml", "order.status"},
		{"gender.yaml", "gender"},
		{"hr/leave/LeaveTypeEnum.yaml", "hr.leave.leave_type"},
	}
	for _, tt := range tests {
		if got := EnumKeyFromPath(tt.in); got != tt.want {
			t.Errorf("EnumKeyFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeadline(t *testing.T) {
	if got := Headline("order_item"); got != "Order Item" {
		t.Errorf("Headline = %q, want Order Item", got)
	}
}
