// tabledemo is a small interactive example program for the epochtable
// table variants.
//
// Usage:
//
//	tabledemo [--variant name] [--repl]
//
// Without --repl it runs a short scripted demonstration of the chosen
// variant and exits; with --repl it drops into an interactive command loop.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/epochtable/adaptive"
	"github.com/calvinalkan/epochtable/dict"
)

func main() {
	variant := flag.String("variant", "lockfreetable-ordered",
		"Table variant: reftable|locktable-unordered|locktable-ordered|lockfreetable-unordered|lockfreetable-ordered|adaptive")
	repl := flag.Bool("repl", false, "Start an interactive command loop instead of the scripted demo")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: tabledemo [flags]\n\n")
		fmt.Fprint(os.Stderr, "Demonstrates an epochtable variant. Use --repl for an interactive session.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg := Config{
		Variant:        *variant,
		AdaptiveTarget: adaptive.TargetLockfreeOrdered,
	}

	tbl, err := buildTable(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *repl {
		r := &REPL{tbl: tbl, variant: cfg.Variant}
		if err := r.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	runScriptedDemo(tbl)
}

// Config is tabledemo's minimal construction input; unlike tablebench it
// has no report or workload mix, only enough to pick a variant.
type Config struct {
	Variant        string
	AdaptiveTarget adaptive.Target
}

func runScriptedDemo(tbl dict.Table) {
	fmt.Println("tabledemo: scripted walkthrough")

	for i := 1; i <= 5; i++ {
		hv := keyAt(i)
		tbl.Put(hv, fmt.Sprintf("value-%d", i))
		fmt.Printf("  put  key-%d\n", i)
	}

	item, found := tbl.Get(keyAt(3))
	fmt.Printf("  get  key-3 -> %v, found=%v\n", item, found)

	old, found := tbl.Remove(keyAt(3))
	fmt.Printf("  remove key-3 -> displaced %v, found=%v\n", old, found)

	view := tbl.View(true)
	fmt.Printf("  view (sorted by insertion): %d entries\n", len(view))

	for _, e := range view {
		fmt.Printf("    %v\n", e.Item)
	}

	fmt.Printf("  len=%d\n", tbl.Len())
}
