package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidtrace/tracediff/diverge"
	"github.com/droidtrace/tracediff/diverge/internal/testutil"
	"github.com/droidtrace/tracediff/diverge/pipeline"
)

func intPtr(i int) *int { return &i }

func TestSummarize_EmptyInput_ZeroValues(t *testing.T) {
	// GIVEN no artifacts
	// WHEN summarized
	s := Summarize(nil)

	// THEN all counts are zero
	assert.Equal(t, 0, s.Artifacts)
	assert.Equal(t, 0, s.Records)
	assert.Equal(t, 0.0, s.MeanFractionMatched)
	assert.Empty(t, s.DivergingMethods)
	assert.NotNil(t, s.DivergingMethods)
}

func TestSummarize_CountsAndStatistics(t *testing.T) {
	// GIVEN two artifacts with three records, two diverging in the same method
	artifacts := [][]diverge.ComparisonRecord{
		{
			{SimCov: 0.5, Aligned: true, DivergeIdx: intPtr(3), FractionMatched: 0.75,
				RealTrace: []string{"ent a.A ()V A.java", "ent a.Env.isEmulator ()Z Env.java"}},
			{SimCov: 1, Aligned: true, FractionMatched: 1},
		},
		{
			{SimCov: 0.3, Aligned: false, DivergeIdx: intPtr(0), FractionMatched: 0,
				RealTrace: []string{"ent! a.Env.isEmulator ()Z Env.java"}},
		},
	}

	// WHEN summarized
	s := Summarize(artifacts)

	// THEN counts and means match
	assert.Equal(t, 2, s.Artifacts)
	assert.Equal(t, 3, s.Records)
	assert.Equal(t, 2, s.Diverged)
	assert.Equal(t, 1, s.Misaligned)
	testutil.AssertFloat64Equal(t, "mean similarity", 0.6, s.MeanSimilarity, 1e-9)
	testutil.AssertFloat64Equal(t, "mean fraction", 1.75/3, s.MeanFractionMatched, 1e-9)
	assert.Equal(t, 0.0, s.MinFractionMatched)
	assert.Equal(t, []MethodCount{{Method: "a.Env.isEmulator", Count: 2}}, s.DivergingMethods)
}

func TestSummarize_MethodOrdering_CountThenName(t *testing.T) {
	rec := func(m string) diverge.ComparisonRecord {
		return diverge.ComparisonRecord{DivergeIdx: intPtr(0), RealTrace: []string{"ent " + m + " ()V X.java"}}
	}
	s := Summarize([][]diverge.ComparisonRecord{{rec("b.B"), rec("a.A"), rec("c.C"), rec("c.C")}})
	assert.Equal(t, []MethodCount{{"c.C", 2}, {"a.A", 1}, {"b.B", 1}}, s.DivergingMethods)
}

func TestSummarizeDir_ReadsArtifactsSkipsManifest(t *testing.T) {
	// GIVEN a directory with the sample artifact, a manifest and an unrelated file
	dir := t.TempDir()
	records, err := diverge.Compare(
		testutil.LoadFixture(t, testutil.SampleDeviceTrace),
		testutil.LoadFixture(t, testutil.SampleEmulatorTrace),
	)
	require.NoError(t, err)
	require.NoError(t, pipeline.WriteRecords(filepath.Join(dir, "app_1_1.json"), records))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pipeline.ManifestFile), []byte(`{"run_id":"x"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	// WHEN summarized
	s, err := SummarizeDir(dir)

	// THEN only the artifact contributes
	require.NoError(t, err)
	assert.Equal(t, 1, s.Artifacts)
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 1, s.Diverged)
	assert.Equal(t, []MethodCount{{Method: "com.example.app.Main.startPayload", Count: 1}}, s.DivergingMethods)

	var buf bytes.Buffer
	s.Print(&buf, 5)
	assert.Contains(t, buf.String(), "com.example.app.Main.startPayload")
	assert.Contains(t, buf.String(), "diverged:              1")
}

func TestSummarizeDir_MissingDir_IsError(t *testing.T) {
	_, err := SummarizeDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSummarizeDir_CorruptArtifact_IsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))
	_, err := SummarizeDir(dir)
	assert.Error(t, err)
}
