package diverge

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// bestTotal enumerates every matching of size min(r, c) and returns the
// largest total similarity.
func bestTotal(sim *mat.Dense) float64 {
	r, c := sim.Dims()
	if r > c {
		return bestTotal(mat.DenseCopyOf(sim.T()))
	}
	best := -1.0
	used := make([]bool, c)
	var rec func(row int, acc float64)
	rec = func(row int, acc float64) {
		if row == r {
			if acc > best {
				best = acc
			}
			return
		}
		for col := 0; col < c; col++ {
			if !used[col] {
				used[col] = true
				rec(row+1, acc+sim.At(row, col))
				used[col] = false
			}
		}
	}
	rec(0, 0)
	return best
}

func TestThreadMatcher_PairsByNameAndCoverage(t *testing.T) {
	// GIVEN two threads per side whose names identify the pairing
	device := doc(map[ThreadID]*ThreadTrace{
		10: thread("main", "ent app.A", "ent app.B"),
		11: thread("RenderThread", "ent app.R"),
	})
	emulator := doc(map[ThreadID]*ThreadTrace{
		20: thread("RenderThread", "ent app.R"),
		21: thread("main", "ent app.A", "ent app.C"),
	})

	// WHEN matched
	m := NewThreadMatcher().Match(device, emulator)

	// THEN main pairs with main and RenderThread with RenderThread
	require.Len(t, m.Pairs, 2)
	assert.Equal(t, ThreadPair{Device: 10, Emulator: 21, Similarity: 1.0 / 3.0}, m.Pairs[0])
	assert.Equal(t, ThreadPair{Device: 11, Emulator: 20, Similarity: 1.0}, m.Pairs[1])
	assert.Equal(t, []ThreadID{10, 11}, m.DeviceIDs)
	assert.Equal(t, []ThreadID{20, 21}, m.EmulatorIDs)
}

func TestThreadMatcher_UnequalCounts_ProducesMinPairs(t *testing.T) {
	device := doc(map[ThreadID]*ThreadTrace{
		1: thread("main", "ent app.A"),
		2: thread("worker", "ent app.W"),
		3: thread("timer", "ent app.T"),
	})
	emulator := doc(map[ThreadID]*ThreadTrace{
		7: thread("worker", "ent app.W"),
	})

	m := NewThreadMatcher().Match(device, emulator)

	require.Len(t, m.Pairs, 1)
	assert.Equal(t, ThreadID(2), m.Pairs[0].Device)
	assert.Equal(t, ThreadID(7), m.Pairs[0].Emulator)
}

func TestThreadMatcher_EmptySide_NoPairs(t *testing.T) {
	device := doc(map[ThreadID]*ThreadTrace{1: thread("main", "ent app.A")})
	emulator := doc(map[ThreadID]*ThreadTrace{})

	m := NewThreadMatcher().Match(device, emulator)

	assert.Nil(t, m.Similarity)
	assert.Empty(t, m.Pairs)
}

func TestThreadMatcher_OptimalAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	names := []string{"main", "mainloop", "Binder_1", "Binder_2", "pool-1", "pool-2"}
	methods := []string{"app.A", "app.B", "app.C", "app.D", "app.E", "app.F"}
	randomDoc := func(n int) *TraceDocument {
		threads := make(map[ThreadID]*ThreadTrace, n)
		for i := 0; i < n; i++ {
			th := &ThreadTrace{Name: names[rng.Intn(len(names))]}
			for k := 1 + rng.Intn(4); k > 0; k-- {
				th.Events = append(th.Events, ev("ent "+methods[rng.Intn(len(methods))]))
			}
			threads[ThreadID(100+i)] = th
		}
		return doc(threads)
	}

	for trial := 0; trial < 200; trial++ {
		device := randomDoc(1 + rng.Intn(5))
		emulator := randomDoc(1 + rng.Intn(5))
		t.Run(fmt.Sprintf("trial_%d", trial), func(t *testing.T) {
			m := NewThreadMatcher().Match(device, emulator)
			total := 0.0
			for _, p := range m.Pairs {
				total += p.Similarity
			}
			assert.InDelta(t, bestTotal(m.Similarity), total, 1e-9)

			want := len(device.Threads)
			if len(emulator.Threads) < want {
				want = len(emulator.Threads)
			}
			assert.Len(t, m.Pairs, want)
		})
	}
}

func TestThreadMatcher_Deterministic(t *testing.T) {
	// GIVEN identical threads on both sides (every pairing ties)
	threads := func() map[ThreadID]*ThreadTrace {
		return map[ThreadID]*ThreadTrace{
			1: thread("t", "ent app.A"),
			2: thread("t", "ent app.A"),
			3: thread("t", "ent app.A"),
		}
	}
	device, emulator := doc(threads()), doc(threads())

	first := NewThreadMatcher().Match(device, emulator).Pairs
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, NewThreadMatcher().Match(device, emulator).Pairs)
	}
}

func TestThreadMatcher_CustomSolver(t *testing.T) {
	// GIVEN a solver that always pairs row i with column i
	identity := func(cost mat.Matrix) []int {
		r, _ := cost.Dims()
		out := make([]int, r)
		for i := range out {
			out[i] = i
		}
		return out
	}
	device := doc(map[ThreadID]*ThreadTrace{1: thread("a", "ent app.A"), 2: thread("b", "ent app.B")})
	emulator := doc(map[ThreadID]*ThreadTrace{3: thread("b", "ent app.B"), 4: thread("a", "ent app.A")})

	m := (&ThreadMatcher{Solver: identity}).Match(device, emulator)

	require.Len(t, m.Pairs, 2)
	assert.Equal(t, ThreadID(3), m.Pairs[0].Emulator)
	assert.Equal(t, 0.0, m.Pairs[0].Similarity)
}
