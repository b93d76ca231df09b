package diverge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Comparator runs the full device/emulator comparison. A Comparator holds only
// configuration and is safe for concurrent use.
type Comparator struct {
	Filter  *NoiseFilter
	Matcher *ThreadMatcher
}

// NewComparator creates a Comparator filtering the given namespace prefixes
// (nil selects DefaultExcludedPrefixes).
func NewComparator(excludedPrefixes []string) *Comparator {
	return &Comparator{
		Filter:  NewNoiseFilter(excludedPrefixes),
		Matcher: NewThreadMatcher(),
	}
}

// Compare parses both decoded traces and compares them with the default
// configuration.
func Compare(deviceText, emulatorText string) ([]ComparisonRecord, error) {
	return NewComparator(nil).Compare(deviceText, emulatorText)
}

// Compare parses both decoded traces and returns one record per matched
// thread pair, ordered by device thread id.
func (c *Comparator) Compare(deviceText, emulatorText string) ([]ComparisonRecord, error) {
	device, err := ParseTrace(deviceText)
	if err != nil {
		return nil, fmt.Errorf("parsing device trace: %w", err)
	}
	emulator, err := ParseTrace(emulatorText)
	if err != nil {
		return nil, fmt.Errorf("parsing emulator trace: %w", err)
	}
	return c.CompareDocuments(device, emulator), nil
}

// CompareDocuments filters, matches and scans two parsed documents. The
// inputs are not modified.
func (c *Comparator) CompareDocuments(device, emulator *TraceDocument) []ComparisonRecord {
	fDevice, dEmptied := c.Filter.ApplyDocument(device)
	fEmulator, eEmptied := c.Filter.ApplyDocument(emulator)
	if len(dEmptied) > 0 || len(eEmptied) > 0 {
		logrus.Debugf("threads emptied by noise filter: device=%v emulator=%v", dEmptied, eEmptied)
	}

	matching := c.Matcher.Match(fDevice, fEmulator)
	records := make([]ComparisonRecord, 0, len(matching.Pairs))
	for _, pair := range matching.Pairs {
		dt := fDevice.Threads[pair.Device]
		et := fEmulator.Threads[pair.Emulator]
		records = append(records, NewComparisonRecord(pair, dt, et, ScanDivergence(dt.Events, et.Events)))
	}
	return records
}
