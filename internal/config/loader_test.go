package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFS implements FileSystem for tests.
type mockFS struct {
	homeDir     string
	homeDirErr  error
	fileData    []byte
	fileReadErr error
}

func (m *mockFS) UserHomeDir() (string, error) {
	if m.homeDirErr != nil {
		return "", m.homeDirErr
	}
	return m.homeDir, nil
}

func (m *mockFS) ReadFile(path string) ([]byte, error) {
	if m.fileReadErr != nil {
		return nil, m.fileReadErr
	}
	return m.fileData, nil
}

func TestLoad_NoConfigFile(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDir:     "/home/test",
		fileReadErr: os.ErrNotExist,
	})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_NoHomeDir(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDirErr: errors.New("no home"),
	})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDir: "/home/test",
		fileData: []byte(`{
			"orchestrator": {"max_iterations": 3, "protocol": "json_action"},
			"sandbox": {"default_timeout_seconds": 30},
			"provider": {"model": "gemini-1.5-pro"}
		}`),
	})

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Orchestrator.MaxIterations)
	assert.Equal(t, "json_action", cfg.Orchestrator.Protocol)
	assert.Equal(t, 30, cfg.Sandbox.DefaultTimeoutSeconds)
	assert.Equal(t, "gemini-1.5-pro", cfg.Provider.Model)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Orchestrator.MaxContinuations)
	assert.Equal(t, 600, cfg.Sandbox.MaxTimeoutSeconds)
	assert.Equal(t, DefaultBlockedBinaries(), cfg.Safety.BlockedBinaries)
}

func TestLoad_InvalidJSON(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDir:  "/home/test",
		fileData: []byte(`{not json`),
	})

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoad_PermissionError(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDir:     "/home/test",
		fileReadErr: os.ErrPermission,
	})

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	loader := NewLoaderWithFS(&mockFS{
		homeDir:  "/home/test",
		fileData: []byte(`{"orchestrator": {"protocol": "yaml_action"}}`),
	})

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol")
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad iterations", func(c *Config) { c.Orchestrator.MaxIterations = 0 }, "max_iterations"},
		{"bad protocol", func(c *Config) { c.Orchestrator.Protocol = "xml" }, "protocol"},
		{"timeout over cap", func(c *Config) { c.Sandbox.MaxTimeoutSeconds = 601 }, "max_timeout_seconds"},
		{"default over max", func(c *Config) {
			c.Sandbox.DefaultTimeoutSeconds = 500
			c.Sandbox.MaxTimeoutSeconds = 100
		}, "default_timeout_seconds"},
		{"bad pattern", func(c *Config) { c.Safety.DangerousPatterns = []string{"(["} }, "invalid regexp"},
		{"empty model", func(c *Config) { c.Provider.Model = "" }, "provider.model"},
		{"empty logs dir", func(c *Config) { c.Session.LogsDir = "" }, "logs_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
