package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentesocial/internal/domain/virality"
	"agentesocial/internal/logging"
)

func TestRegistryListKeepsOrder(t *testing.T) {
	r := NewRegistry(logging.Discard())
	noop := func(context.Context, Args) (interface{}, error) { return nil, nil }

	r.Register(Tool{Name: "b"}, noop)
	r.Register(Tool{Name: "a"}, noop)
	r.Register(Tool{Name: "b", Description: "replaced"}, noop)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "replaced", list[0].Description)
	assert.Equal(t, "a", list[1].Name)
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry(logging.Discard())

	_, err := r.Call(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	out := r.Invoke(context.Background(), "missing", nil)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "unknown tool: missing", decoded["error"])
}

func TestRegistryInvokeRendersResults(t *testing.T) {
	r := NewRegistry(logging.Discard())
	r.Register(Tool{Name: "ok"}, func(_ context.Context, args Args) (interface{}, error) {
		return map[string]string{"echo": args.String("v", "none")}, nil
	})
	r.Register(Tool{Name: "fail"}, func(context.Context, Args) (interface{}, error) {
		return nil, errors.New("boom")
	})

	assert.JSONEq(t, `{"echo":"hi"}`, r.Invoke(context.Background(), "ok", Args{"v": "hi"}))
	assert.JSONEq(t, `{"echo":"none"}`, r.Invoke(context.Background(), "ok", nil))
	assert.JSONEq(t, `{"error":"boom"}`, r.Invoke(context.Background(), "fail", nil))
}

func TestArgsCoercion(t *testing.T) {
	args := Args{
		"name":  "  alice ",
		"blank": "",
		"days":  "14",
		"float": 7.0,
		"bad":   "x",
		"zero":  "010",
		"eight": "08",
		"pad":   " 7 ",
		"whole": "12.0",
		"frac":  "2.5",
	}

	assert.Equal(t, "alice", args.String("name", "def"))
	assert.Equal(t, "def", args.String("blank", "def"))
	assert.Equal(t, "def", args.String("absent", "def"))

	_, err := args.RequiredString("blank")
	assert.EqualError(t, err, "missing required argument: blank")

	n, err := args.Int("days", 30)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	n, err = args.Int("float", 30)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = args.Int("blank", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = args.Int("bad", 30)
	assert.Error(t, err)

	decimals := map[string]int{"zero": 10, "eight": 8, "pad": 7, "whole": 12}
	for name, want := range decimals {
		n, err := args.Int(name, 30)
		require.NoError(t, err, name)
		assert.Equal(t, want, n, name)
	}

	_, err = args.Int("frac", 30)
	assert.EqualError(t, err, `invalid frac: "2.5" is not a whole number`)
}

func TestArgsItems(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantErr bool
	}{
		{name: "absent", value: nil, want: 0},
		{name: "typed", value: []virality.Item{{"likes": 1}, {"likes": 2}}, want: 2},
		{name: "decoded json", value: []interface{}{map[string]interface{}{"likes": 1.0}}, want: 1},
		{name: "json string", value: `[{"likes": 3}, {"likes": "4"}]`, want: 2},
		{name: "invalid json", value: `[{"likes"`, wantErr: true},
		{name: "not a list", value: 42, wantErr: true},
		{name: "not an object", value: []interface{}{"x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Args{"items": tt.value}.Items("items")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}
