// Package config loads and validates the runtime configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ to the home directory, substitutes $VAR and
// ${VAR} references, and cleans the result. Empty paths stay empty.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(os.ExpandEnv(expandHome(path)))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
