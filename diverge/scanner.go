package diverge

// Divergence is the outcome of scanning one matched pair of filtered event
// sequences.
type Divergence struct {
	// Aligned reports whether both sequences start with the same event (or
	// either is empty). It is informational; the scan runs regardless.
	Aligned bool
	// Diverged is false when no mismatch exists within the common prefix.
	Diverged bool
	// Index of the first mismatch; meaningful only when Diverged.
	Index int
	// DeviceContext and EmulatorContext hold the event preceding the mismatch
	// (when there is one) and the mismatching event itself. Nil unless Diverged.
	DeviceContext   []Event
	EmulatorContext []Event
	// FractionMatched is Index/MaxCommonLen, or 1 when nothing disagreed.
	FractionMatched float64
	MaxCommonLen    int
}

// ScanDivergence walks device and emulator in lockstep and reports the first
// index at which they differ.
func ScanDivergence(device, emulator []Event) Divergence {
	if len(device) == 0 || len(emulator) == 0 {
		return Divergence{Aligned: true, FractionMatched: 1.0}
	}

	d := Divergence{Aligned: device[0] == emulator[0]}
	d.MaxCommonLen = len(device)
	if len(emulator) < d.MaxCommonLen {
		d.MaxCommonLen = len(emulator)
	}

	i := 0
	for i < d.MaxCommonLen && device[i] == emulator[i] {
		i++
	}
	d.FractionMatched = float64(i) / float64(d.MaxCommonLen)
	if i == d.MaxCommonLen {
		return d
	}

	d.Diverged = true
	d.Index = i
	lo := i - 1
	if lo < 0 {
		lo = 0
	}
	d.DeviceContext = append([]Event(nil), device[lo:i+1]...)
	d.EmulatorContext = append([]Event(nil), emulator[lo:i+1]...)
	return d
}
