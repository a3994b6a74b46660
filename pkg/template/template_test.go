package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWithVariables(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		vars     map[string]any
		expected any
	}{
		{
			name:     "plain string",
			input:    "hello world",
			vars:     nil,
			expected: "hello world",
		},
		{
			name:     "variable substitution",
			input:    "deploy to {{.vars.env}}",
			vars:     map[string]any{"env": "production"},
			expected: "deploy to production",
		},
		{
			name:     "variables alias",
			input:    "{{.variables.env}}",
			vars:     map[string]any{"env": "staging"},
			expected: "staging",
		},
		{
			name:     "number coercion",
			input:    "{{.vars.count}}",
			vars:     map[string]any{"count": 42},
			expected: float64(42),
		},
		{
			name:     "boolean coercion",
			input:    "true",
			vars:     nil,
			expected: true,
		},
		{
			name:     "json object coercion",
			input:    `{"status": "ok"}`,
			vars:     nil,
			expected: map[string]any{"status": "ok"},
		},
		{
			name:     "json array coercion",
			input:    `[1, 2, 3]`,
			vars:     nil,
			expected: []any{float64(1), float64(2), float64(3)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := RenderWithVariables(tc.input, tc.vars)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestRenderWithVariables_ParseError(t *testing.T) {
	_, err := RenderWithVariables("{{.vars.env", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestRenderString(t *testing.T) {
	result, err := RenderString("count is {{.vars.count}}", map[string]any{"count": 3})
	require.NoError(t, err)
	assert.Equal(t, "count is 3", result)

	// Coerced non-string results are stringified.
	result, err = RenderString("{{.vars.count}}", map[string]any{"count": 3})
	require.NoError(t, err)
	assert.Equal(t, "3", result)
}

func TestRenderBool(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		vars     map[string]any
		expected bool
	}{
		{
			name:     "literal true",
			input:    "true",
			expected: true,
		},
		{
			name:     "literal false",
			input:    "false",
			expected: false,
		},
		{
			name:     "boolean variable",
			input:    "{{.vars.enabled}}",
			vars:     map[string]any{"enabled": true},
			expected: true,
		},
		{
			name:     "non-zero number is true",
			input:    "{{.vars.count}}",
			vars:     map[string]any{"count": 7},
			expected: true,
		},
		{
			name:     "zero number is false",
			input:    "0",
			expected: false,
		},
		{
			name:     "comparison expression",
			input:    "{{gt .vars.count 3.0}}",
			vars:     map[string]any{"count": 5.0},
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := RenderBool(tc.input, tc.vars)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestRenderBool_NotABoolean(t *testing.T) {
	_, err := RenderBool("definitely not boolean", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert")
}
