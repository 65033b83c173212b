// Package xdg resolves the XDG base directories used by powerdata.
// Directories are created on demand with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "powerdata"

// ConfigDir returns $XDG_CONFIG_HOME/powerdata, falling back to
// ~/.config/powerdata.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns $XDG_CACHE_HOME/powerdata, falling back to
// ~/.cache/powerdata. Downloaded data-source manifests are kept here.
func CacheDir() (string, error) {
	return resolve("XDG_CACHE_HOME", ".cache")
}

func resolve(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
