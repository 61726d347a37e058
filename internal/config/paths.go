package config

import (
	"os"
	"path/filepath"
	"strings"
)

const envConfigDir = "NETLENS_CONFIG_DIR"

// Dir returns the netlens configuration directory. NETLENS_CONFIG_DIR wins,
// then the platform user config dir, then a dot directory in $HOME.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, "netlens")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".netlens")
	}
	return ".netlens"
}

func ThemeDirs() []string {
	return []string{filepath.Join(Dir(), "themes")}
}

func CaptureStorePath() string {
	return filepath.Join(Dir(), "captures.json")
}
