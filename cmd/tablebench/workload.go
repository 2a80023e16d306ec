package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinalkan/epochtable/dict"
	"github.com/calvinalkan/epochtable/fingerprint"
)

// WorkerStats accumulates one worker's contribution to a run.
type WorkerStats struct {
	Ops     int64
	GetHits int64
}

// keyAt derives the fingerprint for logical key i within a run's key
// space, the same way cmd/tabledemo does: callers own key derivation,
// the table only ever sees the resulting Hv.
func keyAt(i int) fingerprint.Hv {
	return fingerprint.FromBytes([]byte(fmt.Sprintf("tablebench-%d", i)))
}

// prefill populates tbl with half of keySpace entries before the timed
// portion of a run starts, so Get/Replace/Remove have something to act
// on from the first operation instead of degenerating into all-Put/Add.
func prefill(tbl dict.Table, keySpace int) {
	for i := 0; i < keySpace/2; i++ {
		tbl.Put(keyAt(i), i)
	}
}

// runWorkers drives cfg.Workers goroutines against tbl for the
// configured duration, each picking operations from mix against a
// uniformly random key in [0, keySpace), and returns the aggregated
// stats once every worker has stopped.
func runWorkers(ctx context.Context, tbl dict.Table, mix Mix, keySpace, workers int) WorkerStats {
	var (
		wg   sync.WaitGroup
		ops  atomic.Int64
		hits atomic.Int64
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(seed uint64) {
			defer wg.Done()

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

			var localOps, localHits int64

			for i := 0; ; i++ {
				// Checking ctx every 256 iterations keeps the hot loop
				// free of a syscall/clock read on every single operation.
				if i&0xFF == 0 {
					select {
					case <-ctx.Done():
						ops.Add(localOps)
						hits.Add(localHits)

						return
					default:
					}
				}

				hv := keyAt(rng.IntN(keySpace))

				switch pick(rng, mix) {
				case opGet:
					_, found := tbl.Get(hv)
					if found {
						localHits++
					}
				case opPut:
					tbl.Put(hv, i)
				case opReplace:
					tbl.Replace(hv, i)
				case opAdd:
					tbl.Add(hv, i)
				case opRemove:
					tbl.Remove(hv)
				case opView:
					_ = tbl.View(false)
				}

				localOps++
			}
		}(uint64(w) + 1) //nolint:gosec // worker index as PCG seed, not security sensitive
	}

	wg.Wait()

	return WorkerStats{Ops: ops.Load(), GetHits: hits.Load()}
}

type op int

const (
	opGet op = iota
	opPut
	opReplace
	opAdd
	opRemove
	opView
)

// pick draws one operation from mix's weighted distribution.
func pick(rng *rand.Rand, mix Mix) op {
	n := rng.IntN(100)

	if n < mix.GetPct {
		return opGet
	}

	n -= mix.GetPct
	if n < mix.PutPct {
		return opPut
	}

	n -= mix.PutPct
	if n < mix.ReplacePct {
		return opReplace
	}

	n -= mix.ReplacePct
	if n < mix.AddPct {
		return opAdd
	}

	n -= mix.AddPct
	if n < mix.RemovePct {
		return opRemove
	}

	return opView
}

// runOne runs one (variant, keySpace) combination for cfg.DurationMS and
// returns throughput stats alongside the wall time actually elapsed.
func runOne(cfg Config, keySpace int) (WorkerStats, time.Duration, error) {
	tbl, err := buildTable(cfg)
	if err != nil {
		return WorkerStats{}, 0, err
	}

	prefill(tbl, keySpace)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.DurationMS)*time.Millisecond)
	defer cancel()

	start := time.Now()
	stats := runWorkers(ctx, tbl, cfg.Mix, keySpace, cfg.Workers)
	elapsed := time.Since(start)

	return stats, elapsed, nil
}
