// Package config loads and stores powerdata settings as TOML in the XDG config
// dir. Only non-secret settings live here; the host session token goes to the
// OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"powerdata/cli/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file inside the config dir.
const FileName = "config.toml"

// Environment overrides.
const (
	EnvHost        = "POWERDATA_HOST"
	EnvDataSources = "POWERDATA_DATA_SOURCES"
	EnvLogLevel    = "POWERDATA_LOG_LEVEL"
)

// Config holds non-sensitive settings.
type Config struct {
	LogLevel string     `toml:"log_level"`
	Host     HostConfig `toml:"host"`
	App      AppConfig  `toml:"app"`
}

// HostConfig locates the host process.
type HostConfig struct {
	Address  string `toml:"address"`
	Insecure bool   `toml:"insecure"`
	Mobile   bool   `toml:"mobile"`
}

// AppConfig describes the app whose data is accessed.
type AppConfig struct {
	// DataSources is a path or http(s) URL of the dataSourcesInfo manifest.
	DataSources string `toml:"data_sources"`
	Monitor     bool   `toml:"monitor"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Config {
	return Config{LogLevel: "info"}
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file and applies environment overrides. A missing
// file yields defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Defaults(), err
	}
	c, err := ReadFile(p)
	if err != nil {
		return c, err
	}
	c.applyEnv(os.Getenv)
	return c, nil
}

// ReadFile parses the config at p without environment overrides.
func ReadFile(p string) (Config, error) {
	c := Defaults()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config: %w", err)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvHost)); v != "" {
		c.Host.Address = v
	}
	if v := strings.TrimSpace(getenv(EnvDataSources)); v != "" {
		c.App.DataSources = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// Save writes c to the config file with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return WriteFile(p, c)
}

// WriteFile writes c to p with 0600 permissions.
func WriteFile(p string, c Config) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(p, b, 0o600)
}

// Target returns the dial address of the host and whether the channel is
// plaintext. grpc:// forces plaintext and grpcs:// forces TLS; a bare
// host[:port] follows Insecure.
func (h HostConfig) Target() (addr string, insecure bool) {
	addr = strings.TrimSpace(h.Address)
	switch {
	case strings.HasPrefix(addr, "grpc://"):
		return strings.TrimRight(strings.TrimPrefix(addr, "grpc://"), "/"), true
	case strings.HasPrefix(addr, "grpcs://"):
		return strings.TrimRight(strings.TrimPrefix(addr, "grpcs://"), "/"), false
	}
	return addr, h.Insecure
}
