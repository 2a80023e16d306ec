package main

import (
	"fmt"

	"github.com/calvinalkan/epochtable/adaptive"
	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/lockfreetable"
	"github.com/calvinalkan/epochtable/locktable"
	"github.com/calvinalkan/epochtable/reftable"
)

// buildTable constructs a fresh, empty table of the variant named by
// cfg.Variant, sized and tuned from the rest of cfg.
func buildTable(cfg Config) (dict.Table, error) {
	opts := dict.Options{
		MinSize:        cfg.MinSize,
		RetryThreshold: cfg.RetryThreshold,
	}

	switch cfg.Variant {
	case "reftable":
		return reftable.New(opts)
	case "locktable-unordered":
		return locktable.NewUnordered(opts)
	case "locktable-ordered":
		return locktable.NewOrdered(opts)
	case "lockfreetable-unordered":
		return lockfreetable.NewUnordered(opts)
	case "lockfreetable-ordered":
		return lockfreetable.NewOrdered(opts)
	case "adaptive":
		target, err := parseAdaptiveTarget(cfg.AdaptiveTarget)
		if err != nil {
			return nil, err
		}

		return adaptive.New(opts, target)
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
}

func parseAdaptiveTarget(name string) (adaptive.Target, error) {
	switch name {
	case "", "lockfree-ordered":
		return adaptive.TargetLockfreeOrdered, nil
	case "lockfree-unordered":
		return adaptive.TargetLockfreeUnordered, nil
	case "locked-ordered":
		return adaptive.TargetLockedOrdered, nil
	case "locked-unordered":
		return adaptive.TargetLockedUnordered, nil
	default:
		return 0, fmt.Errorf("unknown adaptive target %q", name)
	}
}
