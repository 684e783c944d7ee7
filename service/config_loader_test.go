package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
)

func TestRequestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.MaxSteps = 77
	cfg.Engine.CreateForLoops = false
	cfg.Output.Format = "json"
	cfg.Output.Color = true
	cfg.Performance.TimeoutSeconds = 5
	cfg.Cache.Dir = "/tmp/bcflow-test"

	req := RequestFromConfig(cfg)

	assert.Equal(t, domain.OutputFormatJSON, req.OutputFormat)
	assert.Equal(t, 77, req.Engine.MaxSteps)
	assert.False(t, req.Engine.CreateForLoops)
	assert.True(t, req.Engine.NegateConditions)
	assert.True(t, req.Engine.Declarations)
	assert.False(t, req.Engine.Color, "dumps are never colored outside text output")
	assert.True(t, req.Color)
	assert.Equal(t, 5*time.Second, req.Timeout)
	assert.True(t, req.UseCache)
	assert.Equal(t, "/tmp/bcflow-test", req.CacheDir)
	assert.Equal(t, cfg.Input.IncludePatterns, req.IncludePatterns)
	assert.NotNil(t, req.OutputWriter)
}

func TestConfigurationLoader_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bcflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nmax_steps = 9\n[output]\nformat = \"yaml\"\n"), 0644))

	req, err := NewConfigurationLoader().LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, req.Engine.MaxSteps)
	assert.Equal(t, domain.OutputFormatYAML, req.OutputFormat)
	assert.Equal(t, path, req.ConfigPath)
}

func TestConfigurationLoader_LoadConfigError(t *testing.T) {
	_, err := NewConfigurationLoader().LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	code, ok := domain.ErrorCode(err)
	assert.True(t, ok)
	assert.Equal(t, domain.ErrCodeConfigError, code)
}

func TestConfigurationLoader_LoadDefaultConfig(t *testing.T) {
	req := NewConfigurationLoader().LoadDefaultConfig()
	require.NotNil(t, req)
	assert.NotEmpty(t, req.IncludePatterns)
}
