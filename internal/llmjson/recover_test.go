package llmjson

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "plain object",
			input: `{"a":1}`,
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\":1}\n```",
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\":1}\n```",
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "trailing garbage",
			input: `{"a":1} extra text`,
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "two objects keeps first",
			input: "{\"a\":1}\n{\"b\":2}",
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "preamble before object",
			input: `Here is the result: {"a":"x"} thanks`,
			want:  map[string]any{"a": "x"},
		},
		{
			name:  "braces inside strings",
			input: `note {broken {"a":"}{\"quoted\"}"} tail`,
			want:  map[string]any{"a": `}{"quoted"}`},
		},
		{
			name:  "table key renamed",
			input: `{"table":[["h"]]}`,
			want:  map[string]any{"table_data": []any{[]any{"h"}}},
		},
		{
			name:  "existing table_data kept",
			input: `{"table":[1],"table_data":[2]}`,
			want:  map[string]any{"table": []any{float64(1)}, "table_data": []any{float64(2)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recover(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecover_Malformed(t *testing.T) {
	input := "no json here " + strings.Repeat("x", 300)

	_, err := Recover(input)

	require.Error(t, err)
	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, HeadLength+len("..."), len([]rune(malformed.Head)))
	assert.Contains(t, err.Error(), "no json here")
}

func TestRecover_ArrayIsNotObject(t *testing.T) {
	_, err := Recover(`[1,2,3]`)
	assert.Error(t, err)
}

func TestRecover_NestedArrayWithObject(t *testing.T) {
	got, err := Recover(`[{"a":1}]`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  ```{\"a\":1}```  "))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}

func TestHead(t *testing.T) {
	assert.Equal(t, "abc", Head("abc", 5))
	assert.Equal(t, "ab...", Head("abcd", 2))
	assert.Equal(t, "日本...", Head("日本語", 2))
}
