package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_ScalarOverrideWins(t *testing.T) {
	dst := map[string]any{"max_tokens": 2048, "model": "deepseek-chat"}
	Merge(dst, map[string]any{"max_tokens": 99})

	assert.Equal(t, 99, dst["max_tokens"])
	assert.Equal(t, "deepseek-chat", dst["model"])
}

func TestMerge_NestedObjectsMergeKeyByKey(t *testing.T) {
	dst := map[string]any{
		"response_format": map[string]any{"type": "text", "strict": true},
	}
	Merge(dst, map[string]any{
		"response_format": map[string]any{"type": "json_object", "extra": map[string]any{"a": 1}},
	})

	assert.Equal(t, map[string]any{
		"type":   "json_object",
		"strict": true,
		"extra":  map[string]any{"a": 1},
	}, dst["response_format"])
}

func TestMerge_DeeplyNested(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 2}}}
	Merge(dst, map[string]any{"a": map[string]any{"b": map[string]any{"d": 3}}})

	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 3}}}, dst)
}

func TestMerge_ReplacementAcrossShapes(t *testing.T) {
	t.Run("scalar replaces object", func(t *testing.T) {
		dst := map[string]any{"stop": map[string]any{"x": 1}}
		Merge(dst, map[string]any{"stop": "END"})
		assert.Equal(t, "END", dst["stop"])
	})

	t.Run("object replaces scalar", func(t *testing.T) {
		dst := map[string]any{"stop": "END"}
		Merge(dst, map[string]any{"stop": map[string]any{"x": 1}})
		assert.Equal(t, map[string]any{"x": 1}, dst["stop"])
	})

	t.Run("arrays are replaced wholesale", func(t *testing.T) {
		dst := map[string]any{"stop": []any{"a", "b"}}
		Merge(dst, map[string]any{"stop": []any{"c"}})
		assert.Equal(t, []any{"c"}, dst["stop"])
	})
}

func TestMerge_AddsNewKeys(t *testing.T) {
	dst := map[string]any{"model": "m"}
	Merge(dst, map[string]any{"top_p": 0.9})
	assert.Equal(t, 0.9, dst["top_p"])
}

func TestMerge_DoesNotAliasSource(t *testing.T) {
	src := map[string]any{"meta": map[string]any{"a": 1}}
	dst := Merge(map[string]any{}, src)
	Merge(dst, map[string]any{"meta": map[string]any{"b": 2}})

	assert.Equal(t, map[string]any{"a": 1}, src["meta"])
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, dst["meta"])
}

func TestMerge_NilDestination(t *testing.T) {
	out := Merge(nil, map[string]any{"a": 1})
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestMerge_DoesNotAliasSourceArrays(t *testing.T) {
	tools := []any{map[string]any{"name": "lookup"}}
	src := map[string]any{"tools": tools}
	dst := Merge(map[string]any{}, src)

	dst["tools"].([]any)[0].(map[string]any)["name"] = "changed"
	dst["tools"].([]any)[0] = "replaced"

	assert.Equal(t, []any{map[string]any{"name": "lookup"}}, src["tools"])
}
