package diverge

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/droidtrace/tracediff/diverge/assign"
)

// AssignmentSolver returns, for each row of a cost matrix, the column of a
// minimum-cost one-to-one assignment (assign.Unassigned for rows left out).
// Implementations must be deterministic.
type AssignmentSolver func(cost mat.Matrix) []int

// ThreadPair is one matched device/emulator thread pair.
type ThreadPair struct {
	Device     ThreadID
	Emulator   ThreadID
	Similarity float64
}

// Matching is the result of ThreadMatcher.Match. Similarity rows follow
// DeviceIDs and columns follow EmulatorIDs; it is nil when either side has no
// threads. Pairs are ordered by device thread id.
type Matching struct {
	DeviceIDs   []ThreadID
	EmulatorIDs []ThreadID
	Similarity  *mat.Dense
	Pairs       []ThreadPair
}

// ThreadMatcher pairs device threads with emulator threads so that the total
// ThreadSimilarity of the chosen pairs is maximal.
type ThreadMatcher struct {
	Solver AssignmentSolver
}

// NewThreadMatcher returns a matcher using the Hungarian solver from package assign.
func NewThreadMatcher() *ThreadMatcher {
	return &ThreadMatcher{Solver: assign.Minimize}
}

// SimilarityMatrix scores every device thread against every emulator thread,
// both taken in ascending id order. Returns nil when either side is empty.
func SimilarityMatrix(device, emulator *TraceDocument) (*mat.Dense, []ThreadID, []ThreadID) {
	dIDs := device.ThreadIDs()
	eIDs := emulator.ThreadIDs()
	if len(dIDs) == 0 || len(eIDs) == 0 {
		return nil, dIDs, eIDs
	}
	sim := mat.NewDense(len(dIDs), len(eIDs), nil)
	for i, dt := range dIDs {
		for j, et := range eIDs {
			sim.Set(i, j, ThreadSimilarity(device.Threads[dt], emulator.Threads[et]))
		}
	}
	return sim, dIDs, eIDs
}

// Match computes the optimal pairing. Only min(|device|, |emulator|) pairs are
// produced; the remaining threads are dropped.
func (m *ThreadMatcher) Match(device, emulator *TraceDocument) *Matching {
	sim, dIDs, eIDs := SimilarityMatrix(device, emulator)
	result := &Matching{DeviceIDs: dIDs, EmulatorIDs: eIDs, Similarity: sim}
	if sim == nil {
		return result
	}
	if len(dIDs) != len(eIDs) {
		logrus.Debugf("thread count differs (device=%d, emulator=%d); unmatched threads are dropped", len(dIDs), len(eIDs))
	}

	var cost mat.Dense
	cost.Scale(-1, sim)
	solver := m.Solver
	if solver == nil {
		solver = assign.Minimize
	}
	for row, col := range solver(&cost) {
		if col == assign.Unassigned {
			continue
		}
		result.Pairs = append(result.Pairs, ThreadPair{
			Device:     dIDs[row],
			Emulator:   eIDs[col],
			Similarity: sim.At(row, col),
		})
	}
	return result
}
