package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/ragchunk/internal/config"
)

func TestApplyFlags_UnsetFlagsKeepFileValues(t *testing.T) {
	cfg := config.Default()
	// Values as loaded from a config file.
	cfg.DropTOC = false
	cfg.TargetTokens = 300
	cfg.Workers = 8

	// Flag defaults (drop-toc defaults to true) with nothing passed on
	// the command line must leave the file values untouched.
	applyFlags(&cfg, flagValues{dropTOC: true, target: 0, workers: 0}, map[string]bool{})

	assert.False(t, cfg.DropTOC)
	assert.Equal(t, 300, cfg.TargetTokens)
	assert.Equal(t, 8, cfg.Workers)
}

func TestApplyFlags_ExplicitFlagsOverride(t *testing.T) {
	cfg := config.Default()
	cfg.DropTOC = false
	cfg.DedupeChunks = true

	applyFlags(&cfg, flagValues{
		dropTOC:   true,
		target:    256,
		noDedupe:  true,
		input:     "/data/in",
		cachePath: "/tmp/cache.db",
	}, map[string]bool{
		"drop-toc":      true,
		"target-tokens": true,
		"no-dedupe":     true,
		"input":         true,
		"cache":         true,
	})

	assert.True(t, cfg.DropTOC)
	assert.Equal(t, 256, cfg.TargetTokens)
	assert.False(t, cfg.DedupeChunks)
	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "/tmp/cache.db", cfg.CachePath)
}
