package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolverConfig names the credential sources for one provider. Every
// source comes from the service configuration; the resolver never reads
// ambient environment variables itself.
type ResolverConfig struct {
	// APIKey is an explicit key value; wins over every other source.
	APIKey string

	// KeyFile is a path to a file holding the key.
	KeyFile string

	// ConfigDir is the base directory for resolving relative key file
	// paths.
	ConfigDir string
}

// Resolve resolves a credential from the configured sources: the
// explicit APIKey value first, then KeyFile. When neither yields a
// key, a NoOpCredential is returned; providers that require
// authentication reject that at construction time.
func Resolve(cfg ResolverConfig) (Credential, error) {
	key := cfg.APIKey
	if key == "" && cfg.KeyFile != "" {
		fileKey, err := readKeyFile(cfg.KeyFile, cfg.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		key = fileKey
	}

	if key == "" {
		return &NoOpCredential{}, nil
	}
	return NewAPIKeyCredential(key), nil
}

// readKeyFile reads an API key from a file.
func readKeyFile(path, configDir string) (string, error) {
	if !filepath.IsAbs(path) && configDir != "" {
		path = filepath.Join(configDir, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}
