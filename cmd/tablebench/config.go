package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Mix is the operation mix a worker draws from on every iteration.
// Percentages must sum to 100.
type Mix struct {
	GetPct     int `json:"get_pct"`
	PutPct     int `json:"put_pct"`
	ReplacePct int `json:"replace_pct"`
	AddPct     int `json:"add_pct"`
	RemovePct  int `json:"remove_pct"`
	ViewPct    int `json:"view_pct"`
}

func (m Mix) total() int {
	return m.GetPct + m.PutPct + m.ReplacePct + m.AddPct + m.RemovePct + m.ViewPct
}

// Config holds all benchmark configuration.
//
// Precedence, highest wins: defaults, then an optional -config file
// (tolerant JSONC via hujson), then explicit CLI flags.
type Config struct {
	Variant        string `json:"variant"`
	AdaptiveTarget string `json:"adaptive_target,omitempty"`
	Workers        int    `json:"workers"`
	Keys           []int  `json:"keys"`
	DurationMS     int    `json:"duration_ms"`
	MinSize        uint64 `json:"min_size"`
	RetryThreshold int    `json:"retry_threshold"`
	OutDir         string `json:"out_dir"`
	Mix            Mix    `json:"mix"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Variant:        "lockfreetable-ordered",
		Workers:        8,
		Keys:           []int{1_000, 100_000},
		DurationMS:     1000,
		MinSize:        16,
		RetryThreshold: 8,
		OutDir:         ".benchmarks",
		Mix: Mix{
			GetPct:  70,
			PutPct:  15,
			AddPct:  5,
			ViewPct: 5,
			// ReplacePct and RemovePct left at 5 combined below.
			RemovePct: 5,
		},
	}
}

// loadConfigFile reads path (tolerant JSONC via hujson) and overlays any
// fields it sets on top of base. An empty path is not an error; it
// simply leaves base untouched.
func loadConfigFile(base Config, path string) (Config, error) {
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is user-controlled CLI input by design
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	overlay := base

	if err := json.Unmarshal(standardized, &overlay); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return overlay, nil
}

func validateConfig(cfg Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", cfg.Workers)
	}

	if len(cfg.Keys) == 0 {
		return fmt.Errorf("keys must list at least one key-space size")
	}

	if cfg.Mix.total() != 100 {
		return fmt.Errorf("mix percentages must sum to 100, got %d", cfg.Mix.total())
	}

	switch cfg.Variant {
	case "reftable", "locktable-unordered", "locktable-ordered",
		"lockfreetable-unordered", "lockfreetable-ordered", "adaptive":
	default:
		return fmt.Errorf("unknown variant %q", cfg.Variant)
	}

	return nil
}
