package enum

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/lookup/core/schema"
)

func orderStatus() *Definition {
	return FromSchema(schema.Enum{
		Key: "order.status",
		Cases: []schema.EnumCase{
			{Name: "PENDING", Value: 0},
			{Name: "DONE", Value: 1},
		},
		Icons: map[string]any{"1": "check"},
	})
}

func TestLabelKey(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  string
	}{
		{"PENDING", 0, "pending"},
		{"IN_PROGRESS", 2, "in_progress"},
		{"InProgress", 2, "in_progress"},
		{"Pending", "3", "pending"},
		{"Active", "active", "active"},
		{"Whatever", "onHold", "on_hold"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelKey(tt.key, tt.value))
		})
	}
}

func TestList_OrderStatus(t *testing.T) {
	got := List(orderStatus(), nil)

	want := []Entry{
		{Key: "PENDING", Value: 0, Label: "pending", SnakeKey: "pending"},
		{Key: "DONE", Value: 1, Label: "done", SnakeKey: "done", Icon: "check"},
	}
	assert.Equal(t, want, got)
}

func TestList_Translated(t *testing.T) {
	var asked []string
	translate := func(key string) (string, bool) {
		asked = append(asked, key)
		if key == "enums.status.pending" {
			return "Waiting", true
		}
		return "", false
	}

	got := List(orderStatus(), translate)
	require.Len(t, got, 2)
	assert.Equal(t, "Waiting", got[0].Label)
	assert.Equal(t, "done", got[1].Label)
	assert.Equal(t, []string{"enums.status.pending", "enums.status.done"}, asked)
}

func TestList_DuplicateValueKeepsFirst(t *testing.T) {
	src := FromSchema(schema.Enum{
		Key:   "x",
		Cases: []schema.EnumCase{{Name: "A", Value: "a"}, {Name: "B", Value: "a"}},
	})
	got := List(src, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Key)
}

func TestResolve(t *testing.T) {
	src := orderStatus()

	assert.Equal(t, "pending", Resolve(src, 0, true, nil))
	assert.Equal(t, "done", Resolve(src, 1, false, nil))
	assert.Equal(t, "done", Resolve(src, "DONE", true, nil))
	assert.Equal(t, 1, Resolve(src, "DONE", false, nil))
	assert.Equal(t, "nope", Resolve(src, "nope", true, nil))
}

func TestValuesAndComment(t *testing.T) {
	src := orderStatus()
	assert.Equal(t, []any{0, 1}, Values(src))
	assert.Equal(t, "0 => pending, 1 => done", CommentFormat(src, nil))
}

func TestInvoke(t *testing.T) {
	src := orderStatus()

	for _, m := range []string{"", "list", "getList"} {
		out, err := Invoke(src, m, nil)
		require.NoError(t, err, m)
		assert.Len(t, out, 2)
	}

	out, err := Invoke(src, "values", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1}, out)

	_, err = Invoke(src, "explode", nil)
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}

func TestFormatWithExtra(t *testing.T) {
	src := orderStatus()

	got, err := FormatWithExtra(src, map[string]any{"1": "shipped", "0": 3}, nil)
	require.NoError(t, err)
	want := []Entry{
		{Key: "PENDING", Value: 0, Label: "pending", SnakeKey: "pending", Extra: 3},
		{Key: "DONE", Value: 1, Label: "done", SnakeKey: "done", Extra: "shipped", Icon: "check"},
	}
	assert.Equal(t, want, got)

	got, err = FormatWithExtra(src, map[string]any{"1": nil}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DONE", got[0].Key)

	_, err = FormatWithExtra(src, map[string]any{"9": "x"}, nil)
	assert.True(t, errors.Is(err, ErrUnknownValue))
}

func TestDefinition_KeyName(t *testing.T) {
	assert.Equal(t, "status", orderStatus().KeyName())
	assert.Equal(t, "custom", FromSchema(schema.Enum{Key: "a.b", KeyName: "custom"}).KeyName())
	assert.Equal(t, "flat", FromSchema(schema.Enum{Key: "flat"}).KeyName())
}
