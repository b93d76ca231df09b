package diverge

import "strings"

// ev builds an event from "<kind><marks> <method>" with a fixed signature
// and location, e.g. ev("ent Foo.bar").
func ev(s string) Event {
	head, method, _ := strings.Cut(s, " ")
	kind := strings.TrimRight(head, "!")
	return Event{
		Kind:      EventKind(kind),
		Marks:     head[len(kind):],
		Method:    method,
		Signature: "()V",
		Location:  "Src.java",
	}
}

func evs(ss ...string) []Event {
	out := make([]Event, len(ss))
	for i, s := range ss {
		out[i] = ev(s)
	}
	return out
}

func thread(name string, ss ...string) *ThreadTrace {
	return &ThreadTrace{Name: name, Events: evs(ss...)}
}

func doc(threads map[ThreadID]*ThreadTrace) *TraceDocument {
	return &TraceDocument{Version: 3, Threads: threads}
}
