// Command c3btbench times Add/Remove/re-Add over a batch of uint32 records,
// the way original_source/c3bt-main.c does, and prints the same maintenance-
// protocol counters alongside a github.com/dolthub/maphash-backed swiss.Map
// run over the same keys as a baseline comparison.
package main

import (
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/dolthub/maphash"

	"github.com/c3bt/c3bt/internal/xflag"
	"github.com/c3bt/c3bt/internal/xsync"
	"github.com/c3bt/c3bt/pkg/arena"
	"github.com/c3bt/c3bt/pkg/arena/c3bt"
	"github.com/c3bt/c3bt/pkg/arena/swiss"
	"github.com/c3bt/c3bt/pkg/either"
	"github.com/c3bt/c3bt/pkg/tuple"
)

type record struct {
	key uint32
}

// keyMode picks between the original driver's sequential-scaled keys
// (Left) and a maphash-scattered ordering (Right) of the same values.
type keyMode = either.Either[struct{}, struct{}]

var (
	size = flag.Int("size", 100_000, "number of records to index")
	mode = xflag.Func("keys", "sequential or scattered", parseKeyMode)
)

func parseKeyMode(s string) (keyMode, error) {
	switch s {
	case "sequential", "":
		return either.Left[struct{}, struct{}](struct{}{}), nil
	case "scattered":
		return either.Right[struct{}, struct{}](struct{}{}), nil
	default:
		return keyMode{}, fmt.Errorf("unknown key mode %q", s)
	}
}

func buildKeys(n int, m keyMode) []uint32 {
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = uint32(i) * 7
	}
	if m.HasRight() {
		scatter(keys)
	}
	return keys
}

// scatter reorders keys by their maphash.Hasher digest, so a scattered run
// exercises the tree's rebalancing protocols on out-of-order insertion
// instead of always walking off the rightmost edge.
func scatter(keys []uint32) {
	h := maphash.NewHasher[uint32]()
	sort.Slice(keys, func(i, j int) bool {
		return h.Hash(keys[i]) < h.Hash(keys[j])
	})
}

// timed runs f and reports (elapsed, per-op average) as a tuple, mirroring
// the original driver's per-phase microsecond printout.
func timed(n int, f func()) tuple.Tuple2[time.Duration, time.Duration] {
	start := time.Now()
	f()
	elapsed := time.Since(start)
	if n == 0 {
		return tuple.New2(elapsed, time.Duration(0))
	}
	return tuple.New2(elapsed, elapsed/time.Duration(n))
}

func printPhase(name string, n int, t tuple.Tuple2[time.Duration, time.Duration], stats c3bt.Stats) {
	elapsed, perOp := t.Unpack()
	fmt.Printf("%s %dk records: %v (%v/op)\n", name, n/1000, elapsed, perOp)
	fmt.Printf("  pushdowns=%d splits=%d pushups=%d mergeups=%d\n",
		stats.PushDowns, stats.Splits, stats.PushUps, stats.MergeUps)
}

func main() {
	flag.Parse()

	n := *size
	keys := buildKeys(n, *mode)
	records := make([]record, n)
	for i := range records {
		records[i].key = keys[i]
	}

	var tree c3bt.Tree[record]
	tree.Init(c3bt.U32(), 0, 32)
	tree.EnableStats()

	var totalElapsed xsync.AtomicFloat64

	addPhase := timed(n, func() {
		for i := range records {
			if out := tree.Add(&records[i]); !out.OK() {
				panic(out.Err())
			}
		}
	})
	totalElapsed.Add(float64(addPhase.V0))
	printPhase("Add", n, addPhase, tree.Stats())
	tree.EnableStats()

	removeCount := n / 2
	removePhase := timed(removeCount, func() {
		for i := 0; i < n; i += 2 {
			if out := tree.Remove(&records[i]); !out.OK() {
				panic(out.Err())
			}
		}
	})
	totalElapsed.Add(float64(removePhase.V0))
	printPhase("Remove", removeCount, removePhase, tree.Stats())
	tree.EnableStats()

	readdPhase := timed(removeCount, func() {
		for i := 0; i < n; i += 2 {
			if out := tree.Add(&records[i]); !out.OK() {
				panic(out.Err())
			}
		}
	})
	totalElapsed.Add(float64(readdPhase.V0))
	printPhase("Re-add", removeCount, readdPhase, tree.Stats())

	walked := tree.CountMatching(func(c3bt.Key, *record) bool { return true })
	fmt.Printf("walked %d records via All(), count()=%d, total wall time %.0fns\n",
		walked, tree.Count(), totalElapsed.Load())

	runSwissBaseline(records)
}

// runSwissBaseline indexes the same records in a swiss.Map, for a rough
// point of comparison against the cell-clustered crit-bit tree above.
func runSwissBaseline(records []record) {
	a := &arena.Arena{}
	m := swiss.NewMap[uint32, *record](a, uint32(len(records)))

	start := time.Now()
	for i := range records {
		m.Put(records[i].key, &records[i])
	}
	elapsed := time.Since(start)

	fmt.Printf("swiss.Map baseline: %d puts in %v (%v/op), count=%d\n",
		len(records), elapsed, elapsed/time.Duration(max(len(records), 1)), m.Count())
}
