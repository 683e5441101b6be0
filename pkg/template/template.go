// Package template renders lead data into email content.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"default": func(fallback string, value any) string {
		if value == nil {
			return fallback
		}

		s := fmt.Sprint(value)
		if s == "" {
			return fallback
		}

		return s
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}

		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// Render executes templateStr against data. Strings without template
// actions are returned unchanged.
func Render(templateStr string, data any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.New("content").Funcs(funcs).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// RenderValues renders every string found in values, descending into nested
// maps and slices. Other values are copied as is.
func RenderValues(values map[string]any, data any) (map[string]any, error) {
	out := make(map[string]any, len(values))

	for key, value := range values {
		rendered, err := renderValue(value, data)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}

		out[key] = rendered
	}

	return out, nil
}

func renderValue(value any, data any) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, data)
	case map[string]any:
		return RenderValues(v, data)
	case []any:
		items := make([]any, len(v))

		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			items[i] = rendered
		}

		return items, nil
	default:
		return value, nil
	}
}
