package diverge

// ComparisonRecord is the persisted result for one matched thread pair.
// Field names follow the established artifact format.
type ComparisonRecord struct {
	RealID    ThreadID `json:"real_id"`
	RealName  string   `json:"real_name"`
	RealLen   int      `json:"real_len"`
	RealTrace []string `json:"real_trace"`

	EmuID    ThreadID `json:"emu_id"`
	EmuName  string   `json:"emu_name"`
	EmuLen   int      `json:"emu_len"`
	EmuTrace []string `json:"e_trace"`

	SimCov          float64 `json:"sim_cov"`
	Aligned         bool    `json:"aligned"`
	MaxCommonLen    int     `json:"max_common_len"`
	DivergeIdx      *int    `json:"diverge_idx"`
	// SimMaxCommon mirrors FractionMatched.
	SimMaxCommon    float64 `json:"sim_max_common"`
	FractionMatched float64 `json:"fraction_matched"`
}

// Diverged reports whether the record carries a divergence point.
func (r *ComparisonRecord) Diverged() bool {
	return r.DivergeIdx != nil
}

// NewComparisonRecord assembles a record from a matched pair and its scan.
func NewComparisonRecord(pair ThreadPair, device, emulator *ThreadTrace, d Divergence) ComparisonRecord {
	rec := ComparisonRecord{
		RealID:          pair.Device,
		RealName:        device.Name,
		RealLen:         len(device.Events),
		RealTrace:       eventStrings(d.DeviceContext),
		EmuID:           pair.Emulator,
		EmuName:         emulator.Name,
		EmuLen:          len(emulator.Events),
		EmuTrace:        eventStrings(d.EmulatorContext),
		SimCov:          pair.Similarity,
		Aligned:         d.Aligned,
		MaxCommonLen:    d.MaxCommonLen,
		SimMaxCommon:    d.FractionMatched,
		FractionMatched: d.FractionMatched,
	}
	if d.Diverged {
		idx := d.Index
		rec.DivergeIdx = &idx
	}
	return rec
}

// eventStrings renders events canonically; nil stays nil so absent context
// serialises as JSON null.
func eventStrings(events []Event) []string {
	if events == nil {
		return nil
	}
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}
