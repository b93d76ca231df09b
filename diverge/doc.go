// Package diverge locates the points where an app's execution on a physical
// device departs from its execution on an emulator.
//
// # Reading Guide
//
// The comparison is a linear pipeline over two decoded method traces:
//   - trace.go: decoded-trace grammar, TraceDocument and Event (ParseTrace, Format)
//   - filter.go: NoiseFilter drops framework/runtime methods before anything else
//   - similarity.go: name-prefix x method-coverage (Jaccard) thread similarity
//   - matcher.go: optimal one-to-one device/emulator thread pairing
//   - scanner.go: lockstep scan for the first differing event
//   - compare.go: Comparator wires the stages together and emits ComparisonRecords
//
// # Sub-packages
//
//   - diverge/assign/: rectangular minimum-cost assignment solver
//   - diverge/decode/: boundary to the external trace decoder (dmtracedump)
//   - diverge/pipeline/: directory discovery, bounded worker pool, artifact writer
//   - diverge/report/: aggregation over written artifacts
//
// Every Compare call is pure: it touches no shared state and may run
// concurrently with any number of other calls.
package diverge
