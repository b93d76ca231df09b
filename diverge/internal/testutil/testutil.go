// Package testutil provides shared test infrastructure for the diverge
// packages: fixture loading from the repository testdata/ directory and
// float assertion helpers.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestdataDir returns the absolute path of the repository testdata/ directory.
// The path is resolved relative to this source file: diverge/internal/testutil/ → testdata/.
func TestdataDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// LoadFixture reads testdata/<name> as a string.
func LoadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(TestdataDir(t), name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// SampleDeviceTrace and SampleEmulatorTrace name the decoded-trace fixture
// pair; SampleGolden is the expected comparison artifact for them.
const (
	SampleDeviceTrace   = "device_sample.txt"
	SampleEmulatorTrace = "emulator_sample.txt"
	SampleGolden        = "sample_comparison.golden.json"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
