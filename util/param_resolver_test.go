package util

import (
	"testing"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/stretchr/testify/require"
)

func testContext() *model.ExecutionContext {
	return &model.ExecutionContext{
		LeadID:     "lead-1",
		BusinessID: "biz-1",
		LeadName:   "Asha",
		Intent:     "ORDER_REQUEST",
		Confidence: 0.92,
		Entities:   map[string]any{"product": "widget"},
		Vars: map[string]any{
			"orderResult": map[string]any{"taskId": "task-9"},
		},
	}
}

func TestResolveParams(t *testing.T) {
	ec := testContext()

	for scenario, fn := range map[string]func(t *testing.T){
		"embedded placeholder renders": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{
				"text": "Hi {{leadName}}, about your {{entities.product}}",
			})
			require.Equal(t, "Hi Asha, about your widget", out["text"])
		},
		"whole string placeholder keeps raw value": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{
				"result": "{{orderResult}}",
			})
			require.Equal(t, map[string]any{"taskId": "task-9"}, out["result"])
		},
		"numeric value survives whole string form": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{
				"confidence": "{{confidence}}",
			})
			require.Equal(t, 0.92, out["confidence"])
		},
		"unresolved placeholder left verbatim": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{
				"text": "value is {{no.such.path}}",
			})
			require.Equal(t, "value is {{no.such.path}}", out["text"])
		},
		"nested maps and lists resolve": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{
				"content": map[string]any{
					"type": "TEXT",
					"rows": []any{"{{leadName}}", "static"},
				},
			})
			content := out["content"].(map[string]any)
			require.Equal(t, "TEXT", content["type"])
			require.Equal(t, []any{"Asha", "static"}, content["rows"])
		},
		"non string values pass through": func(t *testing.T) {
			out := ResolveParams(ec, map[string]any{"limit": 5, "flag": true})
			require.Equal(t, 5, out["limit"])
			require.Equal(t, true, out["flag"])
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestLookupPath(t *testing.T) {
	data := testContext().AsMap()

	v, ok := LookupPath(data, "leadName")
	require.True(t, ok)
	require.Equal(t, "Asha", v)

	v, ok = LookupPath(data, "entities.product")
	require.True(t, ok)
	require.Equal(t, "widget", v)

	v, ok = LookupPath(data, "orderResult.taskId")
	require.True(t, ok)
	require.Equal(t, "task-9", v)

	_, ok = LookupPath(data, "missing.path")
	require.False(t, ok)
}
