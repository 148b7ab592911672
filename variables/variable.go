// Package variables defines template variable declarations and dynamic
// variable resolution for prompt rendering. Variable providers can inject
// context from external sources (session state, clocks) before a template
// is rendered.
package variables

import "strings"

// Variable type hints.
const (
	TypeText   = "text"
	TypeSelect = "select"
)

// Variable declares one substitution slot for a prompt template.
//
// Declarations are independent of the template text: a variable may be
// declared without being referenced, and a template may reference names
// that were never declared. Neither is an error; unreferenced declarations
// are silently ignored.
type Variable struct {
	// Name is the placeholder identifier, matched case-sensitively
	// against {name} tokens in the template.
	Name string `json:"name" yaml:"name"`

	// Type is a UI hint for the input widget ("text" or "select").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Placeholder is hint text shown in an empty input.
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// Options lists the allowed values for select-type variables.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// Required marks the variable as mandatory for the fill check.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// AllFilled reports whether every required variable has a value that is
// non-empty after trimming. Optional variables are ignored regardless of
// their fill state.
func AllFilled(vars []Variable, values map[string]string) bool {
	for _, v := range vars {
		if !v.Required {
			continue
		}
		if strings.TrimSpace(values[v.Name]) == "" {
			return false
		}
	}
	return true
}

// Missing returns the names of required variables whose value is empty or
// whitespace-only, in declaration order.
func Missing(vars []Variable, values map[string]string) []string {
	var missing []string
	for _, v := range vars {
		if v.Required && strings.TrimSpace(values[v.Name]) == "" {
			missing = append(missing, v.Name)
		}
	}
	return missing
}
