package main

import (
	"fmt"

	"github.com/calvinalkan/epochtable/adaptive"
	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
	"github.com/calvinalkan/epochtable/lockfreetable"
	"github.com/calvinalkan/epochtable/locktable"
	"github.com/calvinalkan/epochtable/reftable"
)

// keyAt derives the fingerprint for a small integer demo key.
func keyAt(i int) fingerprint.Hv {
	return fingerprint.FromBytes([]byte(fmt.Sprintf("key-%d", i)))
}

func buildTable(cfg Config) (dict.Table, error) {
	opts := dict.Options{MinSize: 16}

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
		return adaptive.New(opts, cfg.AdaptiveTarget)
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
}
