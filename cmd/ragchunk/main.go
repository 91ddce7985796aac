package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/dgallion1/ragchunk/internal/cache"
	"github.com/dgallion1/ragchunk/internal/config"
	"github.com/dgallion1/ragchunk/internal/pipeline"
	"github.com/dgallion1/ragchunk/internal/sink"
	"github.com/dgallion1/ragchunk/internal/token"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		inputDir    = flag.String("input", "", "directory of extracted document folders")
		outputDir   = flag.String("output", "", "directory for chunk artifacts")
		cachePath   = flag.String("cache", "", "path to the incremental cache database")
		target      = flag.Int("target-tokens", 0, "target chunk size in tokens")
		maxTokens   = flag.Int("max-tokens", 0, "hard chunk size cap in tokens")
		overlap     = flag.Int("overlap-tokens", 0, "cross-chunk overlap in tokens")
		dropTOC     = flag.Bool("drop-toc", true, "drop table-of-contents and stub segments")
		noDedupe    = flag.Bool("no-dedupe", false, "skip corpus-wide duplicate removal")
		auditDedupe = flag.Bool("audit-dedupe", false, "tag duplicates instead of dropping them")
		noCache     = flag.Bool("no-incremental", false, "recompute every document, ignoring the cache")
		workers     = flag.Int("workers", 0, "concurrent document pipelines")
	)
	flag.Parse()
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(&cfg, flagValues{
		input:       *inputDir,
		output:      *outputDir,
		cachePath:   *cachePath,
		target:      *target,
		maxTokens:   *maxTokens,
		overlap:     *overlap,
		dropTOC:     *dropTOC,
		noDedupe:    *noDedupe,
		auditDedupe: *auditDedupe,
		noCache:     *noCache,
		workers:     *workers,
	}, set)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var store cache.Store
	if cfg.Incremental {
		s, err := cache.OpenSQLite(cfg.CachePath, log)
		if err != nil {
			// A broken cache degrades the run, it does not stop it.
			log.Warn("cache unavailable, running without it", "path", cfg.CachePath, "error", err)
		} else {
			store = s
			defer s.Close()
		}
	}

	runner := pipeline.NewRunner(cfg, store, token.Default(), log)
	result, err := runner.Run(context.Background())
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}

	writer, err := sink.NewWriter(cfg.OutputDir)
	if err != nil {
		log.Error("cannot open output directory", "error", err)
		os.Exit(1)
	}
	if err := writer.WriteChunks(result.Chunks); err != nil {
		log.Error("failed to write chunks", "error", err)
		os.Exit(1)
	}
	if err := writer.WriteDocuments(result.Documents); err != nil {
		log.Error("failed to write documents", "error", err)
		os.Exit(1)
	}
	if err := writer.WriteSummary(result.Summary); err != nil {
		log.Error("failed to write summary", "error", err)
		os.Exit(1)
	}
}

// flagValues carries the parsed CLI flag values into applyFlags.
type flagValues struct {
	input, output, cachePath   string
	target, maxTokens, overlap int
	dropTOC, noDedupe, noCache bool
	auditDedupe                bool
	workers                    int
}

// applyFlags lets CLI flags override file and env settings. Only flags
// the user passed on the command line apply; a flag left at its default
// never clobbers a value from the config file or environment.
func applyFlags(cfg *config.Config, v flagValues, set map[string]bool) {
	if set["input"] {
		cfg.InputDir = v.input
	}
	if set["output"] {
		cfg.OutputDir = v.output
	}
	if set["cache"] {
		cfg.CachePath = v.cachePath
	}
	if set["target-tokens"] {
		cfg.TargetTokens = v.target
	}
	if set["max-tokens"] {
		cfg.MaxTokens = v.maxTokens
	}
	if set["overlap-tokens"] {
		cfg.OverlapTokens = v.overlap
	}
	if set["drop-toc"] {
		cfg.DropTOC = v.dropTOC
	}
	if set["no-dedupe"] && v.noDedupe {
		cfg.DedupeChunks = false
	}
	if set["audit-dedupe"] && v.auditDedupe {
		cfg.DedupeAudit = true
	}
	if set["no-incremental"] && v.noCache {
		cfg.Incremental = false
	}
	if set["workers"] {
		cfg.Workers = v.workers
	}
}
