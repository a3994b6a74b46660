// Package template renders action configuration strings against execution
// variables.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// RenderWithVariables renders input with the execution variables bound as
// both .vars and .variables.
func RenderWithVariables(input string, vars map[string]any) (any, error) {
	data := map[string]any{
		"vars":      vars,
		"variables": vars,
	}

	return Render(input, data)
}

// Render executes input as a text template and coerces the result: JSON
// objects and arrays are decoded, then numbers, then booleans, otherwise the
// rendered string is returned as-is.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders input and stringifies the coerced result.
func RenderString(input string, vars map[string]any) (string, error) {
	result, err := RenderWithVariables(input, vars)
	if err != nil {
		return "", err
	}

	if s, ok := result.(string); ok {
		return s, nil
	}

	return fmt.Sprintf("%v", result), nil
}

// RenderBool renders input and interprets the result as a boolean: booleans
// pass through, numbers are true when non-zero, strings must parse with
// strconv.ParseBool. Anything else is an error.
func RenderBool(input string, vars map[string]any) (bool, error) {
	result, err := RenderWithVariables(input, vars)
	if err != nil {
		return false, err
	}

	switch v := result.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert %q to boolean: %w", v, err)
		}

		return parsed, nil
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", result)
	}
}
