package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// RunResult is one (variant, key-space) combination's outcome.
type RunResult struct {
	Variant  string  `json:"variant"`
	KeySpace int     `json:"key_space"`
	Workers  int     `json:"workers"`
	Ops      int64   `json:"ops"`
	Elapsed  string  `json:"elapsed"`
	OpsPerMS float64 `json:"ops_per_ms"`
	GetHits  int64   `json:"get_hits"`
}

// getSystemInfo reports the run's provenance: git revision, Go version,
// platform, and a page-size probe via golang.org/x/sys/unix.
func getSystemInfo() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Run %s\n\n", time.Now().UTC().Format(time.RFC3339)))

	ctx := context.Background()

	if rev, err := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		sb.WriteString(fmt.Sprintf("- git: %s\n", strings.TrimSpace(string(rev))))
	} else {
		sb.WriteString("- git: unknown\n")
	}

	if goVer, err := exec.CommandContext(ctx, "go", "version").Output(); err == nil {
		sb.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(string(goVer))))
	}

	sb.WriteString(fmt.Sprintf("- %s/%s, %d logical CPUs, page size %d bytes\n",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), unix.Getpagesize()))
	sb.WriteString("\n")

	return sb.String()
}

// writeReport renders results as a markdown table alongside the raw JSON
// and writes both into cfg.OutDir, each filename carrying a UTC
// timestamp.
func writeReport(cfg Config, results []RunResult) error {
	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102-150405")

	var md strings.Builder

	md.WriteString(getSystemInfo())
	md.WriteString(fmt.Sprintf("- variant: %s\n", cfg.Variant))

	if cfg.Variant == "adaptive" {
		md.WriteString(fmt.Sprintf("- adaptive target: %s\n", cfg.AdaptiveTarget))
	}

	md.WriteString(fmt.Sprintf("- workers: %d\n", cfg.Workers))
	md.WriteString(fmt.Sprintf("- duration: %dms per key-space\n\n", cfg.DurationMS))

	md.WriteString("| Key space | Ops | Elapsed | Ops/ms | Get hits |\n")
	md.WriteString("|---:|---:|---:|---:|---:|\n")

	for _, r := range results {
		md.WriteString(fmt.Sprintf("| %d | %d | %s | %.1f | %d |\n",
			r.KeySpace, r.Ops, r.Elapsed, r.OpsPerMS, r.GetHits))
	}

	mdFile := filepath.Join(cfg.OutDir, fmt.Sprintf("tablebench_%s.md", timestamp))
	if err := os.WriteFile(mdFile, []byte(md.String()), 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	jsonFile := filepath.Join(cfg.OutDir, fmt.Sprintf("tablebench_%s.json", timestamp))

	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(jsonFile, jsonData, 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", mdFile)
	fmt.Fprintf(os.Stderr, "wrote %s\n", jsonFile)

	return nil
}
