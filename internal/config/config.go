package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the runtime configuration for a chunking run. Fields that
// affect chunk output feed the incremental cache's processing
// signature, so two runs with different budgets never share entries.
type Config struct {
	InputDir  string `koanf:"input_dir" validate:"required"`
	OutputDir string `koanf:"output_dir" validate:"required"`
	CachePath string `koanf:"cache_path"`

	SourcePriority string `koanf:"source_priority" validate:"oneof=block_first content_first"`

	TargetTokens    int `koanf:"target_tokens" validate:"gt=0"`
	MaxTokens       int `koanf:"max_tokens" validate:"gt=0"`
	OverlapTokens   int `koanf:"overlap_tokens" validate:"gte=0"`
	MaxOverlapChars int `koanf:"max_overlap_chars" validate:"gte=0"`

	DropTOC              bool `koanf:"drop_toc"`
	StubTokens           int  `koanf:"stub_tokens" validate:"gte=0"`
	MinViableChunkTokens int  `koanf:"min_viable_chunk_tokens" validate:"gte=0"`

	DedupeChunks bool `koanf:"dedupe_chunks"`
	DedupeAudit  bool `koanf:"dedupe_audit"`
	Incremental  bool `koanf:"incremental"`

	Workers int `koanf:"workers" validate:"gte=1"`
}

// Default mirrors the budgets tuned for retrieval-sized chunks.
func Default() Config {
	return Config{
		CachePath:            "ragchunk-cache.db",
		SourcePriority:       "block_first",
		TargetTokens:         420,
		MaxTokens:            480,
		OverlapTokens:        30,
		MaxOverlapChars:      200,
		DropTOC:              true,
		StubTokens:           24,
		MinViableChunkTokens: 50,
		DedupeChunks:         true,
		Incremental:          true,
		Workers:              4,
	}
}

// Load merges, in increasing precedence: defaults, a YAML file (when
// path is non-empty or ragchunk.yaml exists), and RAGCHUNK_-prefixed
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat("ragchunk.yaml"); err == nil {
			path = "ragchunk.yaml"
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("RAGCHUNK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RAGCHUNK_"))
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects unusable configurations. This is the only error
// class that stops a whole run before any document is processed.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.TargetTokens > c.MaxTokens {
		return fmt.Errorf("target_tokens (%d) must not exceed max_tokens (%d)", c.TargetTokens, c.MaxTokens)
	}
	if c.OverlapTokens >= c.TargetTokens {
		return fmt.Errorf("overlap_tokens (%d) must be below target_tokens (%d)", c.OverlapTokens, c.TargetTokens)
	}
	if c.MinViableChunkTokens > c.TargetTokens {
		return fmt.Errorf("min_viable_chunk_tokens (%d) must not exceed target_tokens (%d)", c.MinViableChunkTokens, c.TargetTokens)
	}
	return nil
}
