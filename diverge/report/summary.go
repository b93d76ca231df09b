// Package report aggregates comparison artifacts into run-level statistics.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/droidtrace/tracediff/diverge"
	"github.com/droidtrace/tracediff/diverge/pipeline"
)

// MethodCount is how often a method was the device-side divergence point.
type MethodCount struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// Summary aggregates ComparisonRecords across artifacts.
type Summary struct {
	Artifacts           int           `json:"artifacts"`
	Records             int           `json:"records"`
	Diverged            int           `json:"diverged"`
	Misaligned          int           `json:"misaligned"`
	MeanSimilarity      float64       `json:"mean_similarity"`
	MeanFractionMatched float64       `json:"mean_fraction_matched"`
	MinFractionMatched  float64       `json:"min_fraction_matched"`
	DivergingMethods    []MethodCount `json:"diverging_methods"` // count desc, then method
}

// Summarize computes statistics over artifacts (one record list per artifact).
// Safe for nil or empty input (returns zero-value fields).
func Summarize(artifacts [][]diverge.ComparisonRecord) *Summary {
	s := &Summary{Artifacts: len(artifacts), DivergingMethods: []MethodCount{}}
	var sims, fractions []float64
	methods := make(map[string]int)

	for _, records := range artifacts {
		for i := range records {
			r := &records[i]
			s.Records++
			sims = append(sims, r.SimCov)
			fractions = append(fractions, r.FractionMatched)
			if !r.Aligned {
				s.Misaligned++
			}
			if r.Diverged() {
				s.Diverged++
				if m := divergingMethod(r.RealTrace); m != "" {
					methods[m]++
				}
			}
		}
	}

	if s.Records > 0 {
		s.MeanSimilarity = stat.Mean(sims, nil)
		s.MeanFractionMatched = stat.Mean(fractions, nil)
		s.MinFractionMatched = floats.Min(fractions)
	}
	for m, n := range methods {
		s.DivergingMethods = append(s.DivergingMethods, MethodCount{Method: m, Count: n})
	}
	sort.Slice(s.DivergingMethods, func(i, j int) bool {
		a, b := s.DivergingMethods[i], s.DivergingMethods[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Method < b.Method
	})
	return s
}

// divergingMethod extracts the method name of the last (diverging) event in a
// context window rendered as "<kind><marks> <method> <signature> <location>".
func divergingMethod(context []string) string {
	if len(context) == 0 {
		return ""
	}
	fields := strings.Fields(context[len(context)-1])
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// SummarizeDir summarises every artifact in dir. The run manifest and
// non-JSON files are ignored.
func SummarizeDir(dir string) (*Summary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading artifact dir: %w", err)
	}
	sort.Strings(paths)

	var artifacts [][]diverge.ComparisonRecord
	for _, p := range paths {
		if filepath.Base(p) == pipeline.ManifestFile {
			continue
		}
		records, err := pipeline.ReadRecords(p)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, records)
	}
	return Summarize(artifacts), nil
}

// Print writes a human-readable rendering of s, listing at most top methods
// (all when top <= 0).
func (s *Summary) Print(w io.Writer, top int) {
	_, _ = fmt.Fprintf(w, "artifacts:             %d\n", s.Artifacts)
	_, _ = fmt.Fprintf(w, "thread pairs:          %d\n", s.Records)
	_, _ = fmt.Fprintf(w, "diverged:              %d\n", s.Diverged)
	_, _ = fmt.Fprintf(w, "misaligned:            %d\n", s.Misaligned)
	_, _ = fmt.Fprintf(w, "mean similarity:       %.4f\n", s.MeanSimilarity)
	_, _ = fmt.Fprintf(w, "mean fraction matched: %.4f\n", s.MeanFractionMatched)
	_, _ = fmt.Fprintf(w, "min fraction matched:  %.4f\n", s.MinFractionMatched)
	methods := s.DivergingMethods
	if top > 0 && len(methods) > top {
		methods = methods[:top]
	}
	if len(methods) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "diverging methods:")
	for _, m := range methods {
		_, _ = fmt.Fprintf(w, "  %6d  %s\n", m.Count, m.Method)
	}
}
