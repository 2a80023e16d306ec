// tablebench is a benchmark harness for the epochtable table variants.
//
// Usage:
//
//	tablebench [flags]
//
// It drives a configured mix of Get/Put/Replace/Add/Remove/View calls
// against one table variant across N goroutines, at one or more
// key-space sizes, and writes a timestamped markdown + JSON report.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tablebench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := DefaultConfig()

	configPath := flag.String("config", "", "Path to a JSONC config file overlaying the defaults")
	variant := flag.String("variant", cfg.Variant,
		"Table variant: reftable|locktable-unordered|locktable-ordered|lockfreetable-unordered|lockfreetable-ordered|adaptive")
	adaptiveTarget := flag.String("adaptive-target", "",
		"Concurrent target for --variant=adaptive: lockfree-ordered|lockfree-unordered|locked-ordered|locked-unordered")
	workers := flag.Int("workers", cfg.Workers, "Number of concurrent worker goroutines")
	keysStr := flag.String("keys", joinInts(cfg.Keys), "Comma-separated list of key-space sizes to benchmark")
	durationMS := flag.Int("duration-ms", cfg.DurationMS, "Run duration per key-space, in milliseconds")
	minSize := flag.Uint64("min-size", cfg.MinSize, "Initial store size (must be a power of two)")
	retryThreshold := flag.Int("retry-threshold", cfg.RetryThreshold, "Lock-free writer retry threshold before engaging the help protocol")
	outDir := flag.String("out", cfg.OutDir, "Output directory for reports")

	getPct := flag.Int("get-pct", cfg.Mix.GetPct, "Percentage of operations that are Get")
	putPct := flag.Int("put-pct", cfg.Mix.PutPct, "Percentage of operations that are Put")
	replacePct := flag.Int("replace-pct", cfg.Mix.ReplacePct, "Percentage of operations that are Replace")
	addPct := flag.Int("add-pct", cfg.Mix.AddPct, "Percentage of operations that are Add")
	removePct := flag.Int("remove-pct", cfg.Mix.RemovePct, "Percentage of operations that are Remove")
	viewPct := flag.Int("view-pct", cfg.Mix.ViewPct, "Percentage of operations that are View")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: tablebench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Benchmarks an epochtable variant under a configurable read/write mix.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg, err := loadConfigFile(cfg, *configPath)
	if err != nil {
		return err
	}

	// CLI flags always win over the config file (defaults -> file -> CLI
	// overrides).
	cfg.Variant = *variant
	cfg.AdaptiveTarget = *adaptiveTarget
	cfg.Workers = *workers
	cfg.DurationMS = *durationMS
	cfg.MinSize = *minSize
	cfg.RetryThreshold = *retryThreshold
	cfg.OutDir = *outDir
	cfg.Mix = Mix{
		GetPct:     *getPct,
		PutPct:     *putPct,
		ReplacePct: *replacePct,
		AddPct:     *addPct,
		RemovePct:  *removePct,
		ViewPct:    *viewPct,
	}

	keys, err := parseInts(*keysStr)
	if err != nil {
		return fmt.Errorf("invalid -keys: %w", err)
	}

	cfg.Keys = keys

	if err := validateConfig(cfg); err != nil {
		return err
	}

	var results []RunResult

	for _, keySpace := range cfg.Keys {
		fmt.Fprintf(os.Stderr, "running %s against %d keys for %dms...\n", cfg.Variant, keySpace, cfg.DurationMS)

		stats, elapsed, err := runOne(cfg, keySpace)
		if err != nil {
			return fmt.Errorf("key space %d: %w", keySpace, err)
		}

		results = append(results, RunResult{
			Variant:  cfg.Variant,
			KeySpace: keySpace,
			Workers:  cfg.Workers,
			Ops:      stats.Ops,
			Elapsed:  elapsed.String(),
			OpsPerMS: float64(stats.Ops) / float64(elapsed.Milliseconds()+1),
			GetHits:  stats.GetHits,
		})
	}

	return writeReport(cfg, results)
}

func joinInts(vals []int) string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}

	return strings.Join(out, ",")
}

func parseInts(s string) ([]int, error) {
	var out []int

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid key-space size %q: %w", part, err)
		}

		out = append(out, n)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no key-space sizes given")
	}

	return out, nil
}
