// Package template provides placeholder substitution for prompt templates.
//
// Templates use single-brace {variable} syntax. Rendering is pure and never
// fails: placeholders with a known, non-blank value are substituted verbatim
// at every occurrence, placeholders without a value are preserved literally
// so partial previews stay legible, and anything outside the placeholder
// grammar (unmatched braces, empty {} spans) passes through as plain text.
//
// Substituted values are never re-scanned, so a value containing {other}
// does not trigger nested substitution.
package template

import (
	"regexp"
	"strings"
)

// placeholderPattern matches well-formed {identifier} spans. An identifier is
// a non-empty run of characters other than braces, matched case-sensitively.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Renderer performs variable substitution in prompt templates.
type Renderer struct{}

// NewRenderer creates a new template renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render substitutes known variable values into the template.
//
// A placeholder is substituted only when its variable has a value that is
// non-empty after trimming; the untrimmed value is inserted verbatim.
// Everything else, including unresolved placeholders, is left unchanged.
func (r *Renderer) Render(templateText string, values map[string]string) string {
	if templateText == "" || len(values) == 0 {
		return templateText
	}

	return placeholderPattern.ReplaceAllStringFunc(templateText, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := values[name]
		if !ok || strings.TrimSpace(value) == "" {
			return match
		}
		return value
	})
}

// ExtractPlaceholderNames returns the distinct variable names referenced in
// the template, in first-occurrence order. It inspects only the template
// text; names need not correspond to any declared variable.
func (r *Renderer) ExtractPlaceholderNames(templateText string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(templateText, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// HasPlaceholder reports whether the template references the given variable.
func (r *Renderer) HasPlaceholder(templateText, name string) bool {
	return strings.Contains(templateText, "{"+name+"}")
}

// MergeVars merges multiple variable maps with later maps taking precedence.
// Useful for combining default values, session state, and overrides.
func MergeVars(varMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, vars := range varMaps {
		for k, v := range vars {
			result[k] = v
		}
	}
	return result
}
