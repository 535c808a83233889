// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/golang-dep-alumni/conflictrepair/internal/repair"
	"github.com/golang-dep-alumni/conflictrepair/internal/repairlog"
)

const (
	exitSolved      = 0
	exitNoSolution  = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("conflictrepair", flag.ContinueOnError)

	var (
		maxIterations = fs.Int("max-iterations", 0, "A* iteration budget (0 uses the config/default)")
		timeoutSec    = fs.Int("timeout", 0, "resolver subprocess timeout in seconds (0 uses the config/default)")
		verbose       = fs.Bool("verbose", false, "enable verbose progress logging")
		useExtractor  = fs.Bool("use-extractor", false, "enable the structured diagnostic extractor")
		noExtractor   = fs.Bool("no-extractor", false, "force-disable the structured diagnostic extractor")
		extractorURL  = fs.String("extractor-url", "", "diagnostic extractor HTTP endpoint")
		configPath    = fs.String("config", ".conflictrepair.toml", "path to a TOML config file")
		jsonOutput    = fs.Bool("json", false, "emit a JSON report instead of text")
		batchDir      = fs.String("batch", "", "directory to scan for requirements files instead of a single input path")
		batchSuffix   = fs.String("batch-suffix", ".txt", "filename suffix matched in --batch mode")
		catalogURL    = fs.String("catalog-url", "", "version catalog HTTP endpoint (omit to use the config file's static [catalog] table)")
	)

	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	log := repairlog.New(os.Stderr)

	cfg, err := repair.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	if *maxIterations > 0 {
		cfg.MaxIterations = *maxIterations
	}
	if *timeoutSec > 0 {
		cfg.ResolverTimeout = time.Duration(*timeoutSec) * time.Second
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *useExtractor {
		cfg.UseExtractor = true
	}
	if *noExtractor {
		cfg.UseExtractor = false
	}
	if *extractorURL != "" {
		cfg.ExtractorURL = *extractorURL
	}
	log.Verbose = cfg.Verbose

	if cfg.ResolverBin == "" {
		fmt.Fprintln(os.Stderr, (&repair.ConfigError{Reason: "no resolver binary configured"}).Error())
		return exitConfigError
	}
	if _, err := lookResolverBin(cfg.ResolverBin); err != nil {
		fmt.Fprintln(os.Stderr, (&repair.ConfigError{Reason: err.Error()}).Error())
		return exitConfigError
	}

	var extractor repair.DiagnosticExtractor
	if cfg.UseExtractor {
		if cfg.ExtractorURL == "" {
			fmt.Fprintln(os.Stderr, (&repair.ConfigError{Reason: "use-extractor set without an extractor URL"}).Error())
			return exitConfigError
		}
		extractor = repair.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorTimeout)
	}

	catalog := buildCatalog(cfg, *catalogURL)
	resolver := repair.NewProcessResolverDriver(cfg.ResolverBin, cfg.ResolverTimeout)

	orch := &repair.Orchestrator{
		Resolver:      resolver,
		Catalog:       catalog,
		Extractor:     extractor,
		MaxIterations: cfg.MaxIterations,
		Log:           log,
	}

	if *batchDir != "" {
		return runBatch(orch, *batchDir, *batchSuffix, *jsonOutput, log)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: conflictrepair [flags] <requirements-file>")
		return exitConfigError
	}

	content, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, (&repair.ConfigError{Reason: err.Error()}).Error())
		return exitConfigError
	}

	result, err := orch.Solve(string(content))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	if err := writeResult(result, *jsonOutput); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	if !result.Solved {
		fmt.Fprintln(os.Stderr, (&repair.NoSolutionError{Reason: result.Reason, Iterations: result.Iterations}).Error())
		return exitNoSolution
	}
	return exitSolved
}

func writeResult(result repair.Result, jsonOutput bool) error {
	if jsonOutput {
		return repair.WriteJSON(os.Stdout, result)
	}
	return repair.WriteText(os.Stdout, result)
}

func runBatch(orch *repair.Orchestrator, dir, suffix string, jsonOutput bool, log *repairlog.Logger) int {
	items, err := repair.BatchSolve(dir, suffix, orch.Solve, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	anyFailed := false
	for _, item := range items {
		fmt.Fprintf(os.Stdout, "== %s ==\n", repair.RelativeLabel(dir, item.Path))
		if item.Err != nil {
			fmt.Fprintln(os.Stderr, item.Err)
			anyFailed = true
			continue
		}
		if err := writeResult(item.Result, jsonOutput); err != nil {
			fmt.Fprintln(os.Stderr, err)
			anyFailed = true
			continue
		}
		if !item.Result.Solved {
			fmt.Fprintln(os.Stderr, (&repair.NoSolutionError{Reason: item.Result.Reason, Iterations: item.Result.Iterations}).Error())
			anyFailed = true
		}
	}

	if anyFailed {
		return exitNoSolution
	}
	return exitSolved
}

// buildCatalog prefers a live HTTP catalog when catalogURL is set;
// otherwise it falls back to the static table loaded from the config
// file's [catalog] section, which is enough for a pinned, offline set
// of packages.
func buildCatalog(cfg repair.Config, catalogURL string) repair.VersionCatalog {
	if catalogURL != "" {
		return repair.NewHTTPCatalog(catalogURL, cfg.ResolverTimeout)
	}
	return repair.NewStaticCatalog(cfg.CatalogTable)
}

// lookResolverBin resolves bin to an absolute path via $PATH: a missing
// resolver binary is a fatal ConfigError, caught before the search begins.
func lookResolverBin(bin string) (string, error) {
	return exec.LookPath(bin)
}
