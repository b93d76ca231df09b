package diverge

import "strings"

// DefaultExcludedPrefixes returns the framework and runtime namespaces whose
// methods are treated as noise. A fresh slice is returned on every call.
func DefaultExcludedPrefixes() []string {
	return []string{
		"android.",
		"com.android",
		"com.google.android.collect",
		"dalvik.system",
		"java.",
		"libcore.",
		"sun.",
	}
}

// NoiseFilter removes events whose method falls under an excluded namespace.
type NoiseFilter struct {
	prefixes []string
}

// NewNoiseFilter creates a filter over the given prefixes. A nil slice
// selects DefaultExcludedPrefixes; an empty non-nil slice filters nothing.
func NewNoiseFilter(prefixes []string) *NoiseFilter {
	if prefixes == nil {
		prefixes = DefaultExcludedPrefixes()
	}
	cp := make([]string, len(prefixes))
	copy(cp, prefixes)
	return &NoiseFilter{prefixes: cp}
}

// Prefixes returns a copy of the configured prefixes.
func (f *NoiseFilter) Prefixes() []string {
	cp := make([]string, len(f.prefixes))
	copy(cp, f.prefixes)
	return cp
}

// Excluded reports whether method, ignoring leading non-letter indentation,
// starts with any configured prefix.
func (f *NoiseFilter) Excluded(method string) bool {
	method = classMethod(method)
	for _, p := range f.prefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// Apply returns the events whose method is not excluded, in their original
// order. The input slice is not modified.
func (f *NoiseFilter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if !f.Excluded(ev.Method) {
			out = append(out, ev)
		}
	}
	return out
}

// ApplyDocument returns a new document holding the filtered events of every
// thread. Threads left without events are omitted and their ids returned.
func (f *NoiseFilter) ApplyDocument(doc *TraceDocument) (*TraceDocument, []ThreadID) {
	out := &TraceDocument{Version: doc.Version, Threads: make(map[ThreadID]*ThreadTrace, len(doc.Threads))}
	var emptied []ThreadID
	for _, tid := range doc.ThreadIDs() {
		th := doc.Threads[tid]
		events := f.Apply(th.Events)
		if len(events) == 0 {
			emptied = append(emptied, tid)
			continue
		}
		out.Threads[tid] = &ThreadTrace{Name: th.Name, Events: events}
	}
	return out, emptied
}
