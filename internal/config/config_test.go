package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_MissingGivesDefaults(t *testing.T) {
	c, err := ReadFile(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}

func TestReadWriteRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	want := Config{
		LogLevel: "debug",
		Host:     HostConfig{Address: "localhost:50051", Insecure: true},
		App:      AppConfig{DataSources: "./dataSourcesInfo.json", Monitor: true},
	}
	require.NoError(t, WriteFile(p, want))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadFile_TOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(p, []byte(`
[host]
address = "grpcs://host.example.com"
mobile = true

[app]
data_sources = "https://example.com/ds.json"
`), 0o600))

	c, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "grpcs://host.example.com", c.Host.Address)
	assert.True(t, c.Host.Mobile)
	assert.Equal(t, "https://example.com/ds.json", c.App.DataSources)

	require.NoError(t, os.WriteFile(p, []byte("host = ["), 0o600))
	_, err = ReadFile(p)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvHost:        " localhost:7000 ",
		EnvDataSources: "ds.json",
	}
	c := Config{LogLevel: "info", Host: HostConfig{Address: "remote:1"}}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "localhost:7000", c.Host.Address)
	assert.Equal(t, "ds.json", c.App.DataSources)
	assert.Equal(t, "info", c.LogLevel)
}

func TestHostConfig_Target(t *testing.T) {
	tests := []struct {
		host     HostConfig
		addr     string
		insecure bool
	}{
		{HostConfig{Address: "grpc://localhost:50051/"}, "localhost:50051", true},
		{HostConfig{Address: "grpcs://host.example.com", Insecure: true}, "host.example.com", false},
		{HostConfig{Address: " 127.0.0.1:7000 ", Insecure: true}, "127.0.0.1:7000", true},
		{HostConfig{Address: "host.example.com"}, "host.example.com", false},
	}
	for _, tt := range tests {
		addr, insecure := tt.host.Target()
		assert.Equal(t, tt.addr, addr)
		assert.Equal(t, tt.insecure, insecure)
	}
}
