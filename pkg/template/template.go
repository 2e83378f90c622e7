// Package template renders the {{variables.x}} placeholders used in node
// configuration against an execution context.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/zapflow/zapflow/pkg/models"
)

// The visual builder writes placeholders without the leading dot
// ({{variables.name}}); normalize them into Go template syntax before
// parsing. Only known roots are rewritten so template functions stay intact.
var placeholderRoot = regexp.MustCompile(`\{\{\s*(variables|vars|input|output)\b`)

func normalize(input string) string {
	return placeholderRoot.ReplaceAllString(input, "{{.$1")
}

// Data builds the template environment from an execution context. Reserved
// engine-internal variables are never exposed.
func Data(execCtx *models.ExecutionContext) map[string]any {
	public := execCtx.PublicVariables()

	return map[string]any{
		"variables": public,
		"vars":      public, // both spellings are accepted in the builder
		"input":     execCtx.Input,
		"output":    execCtx.Output,
	}
}

// RenderString interpolates a template into a plain string, for message text.
func RenderString(input string, execCtx *models.ExecutionContext) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	tmpl, err := template.
		New("node").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)

				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(normalize(input))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", input, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, Data(execCtx))
	if err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", input, err)
	}

	return buf.String(), nil
}

// RenderValue interpolates a template and coerces the result back into a
// typed value: JSON objects and arrays, numbers and booleans are parsed,
// anything else stays a string. Used for variable assignments and loop
// sequences.
func RenderValue(input string, execCtx *models.ExecutionContext) (any, error) {
	rendered, err := RenderString(input, execCtx)
	if err != nil {
		return nil, err
	}

	result := strings.TrimSpace(rendered)

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return rendered, nil
}
