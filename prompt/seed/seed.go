// Package seed loads the bundled prompt library. The library ships as
// YAML in the legacy shape, validated against an embedded JSON schema
// before conversion to the canonical form.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/promptforge/promptforge/prompt"
)

//go:embed library.yaml
var defaultLibrary []byte

//go:embed library.schema.json
var librarySchema []byte

// library is the YAML document shape.
type library struct {
	Prompts []prompt.Legacy `yaml:"prompts"`
}

// Default returns the bundled prompt library.
func Default() ([]prompt.Prompt, error) {
	return Load(defaultLibrary)
}

// Load parses and validates a YAML library document.
func Load(data []byte) ([]prompt.Prompt, error) {
	// gojsonschema validates JSON; round-trip the YAML through an
	// interface tree first.
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	jsonData, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to convert library to JSON: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(librarySchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, e := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, fmt.Errorf("invalid library: %s", strings.Join(details, "; "))
	}

	var lib library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}

	prompts := make([]prompt.Prompt, len(lib.Prompts))
	for i, legacy := range lib.Prompts {
		prompts[i] = prompt.FromLegacy(legacy)
	}
	return prompts, nil
}

// LoadFile loads a library from a YAML file on disk.
func LoadFile(path string) ([]prompt.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}
	return Load(data)
}
