package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.InputDir = "/in"
	cfg.OutputDir = "/out"
	return cfg
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsContradictoryBudgets(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"target above max", func(c *Config) { c.TargetTokens = 500; c.MaxTokens = 480 }},
		{"overlap at target", func(c *Config) { c.OverlapTokens = c.TargetTokens }},
		{"min viable above target", func(c *Config) { c.MinViableChunkTokens = c.TargetTokens + 1 }},
		{"missing input dir", func(c *Config) { c.InputDir = "" }},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }},
		{"unknown source priority", func(c *Config) { c.SourcePriority = "pdf_first" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragchunk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /data/in
output_dir: /data/out
target_tokens: 300
max_tokens: 360
drop_toc: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, 300, cfg.TargetTokens)
	assert.Equal(t, 360, cfg.MaxTokens)
	assert.False(t, cfg.DropTOC)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, cfg.OverlapTokens)
	assert.True(t, cfg.DedupeChunks)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragchunk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_tokens: 300\n"), 0o644))
	t.Setenv("RAGCHUNK_TARGET_TOKENS", "256")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.TargetTokens)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
