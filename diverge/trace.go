package diverge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// ThreadID identifies a thread within one TraceDocument. IDs carry no meaning
// across documents.
type ThreadID int

// EventKind is the tracer action recorded for a method frame.
type EventKind string

const (
	EventEnter  EventKind = "ent"
	EventExit   EventKind = "xit"
	EventUnwind EventKind = "unr"
)

// Event is one method enter/exit/unwind in canonical form. Thread id and
// nesting depth are deliberately not part of an Event: two events from
// different threads or depths compare equal when every field matches.
type Event struct {
	Kind EventKind
	// Marks holds the tracer's exclusive-frame markers ("" or a run of '!').
	Marks     string
	Method    string
	Signature string
	Location  string
}

// String renders the canonical form "<kind><marks> <method> <signature> <location>".
func (e Event) String() string {
	return string(e.Kind) + e.Marks + " " + e.Method + " " + e.Signature + " " + e.Location
}

// ClassMethod is the qualified method name with any leading non-letter
// indentation removed.
func (e Event) ClassMethod() string {
	return classMethod(e.Method)
}

// Target identifies the method touched by the event, independent of kind,
// markers and indentation.
func (e Event) Target() string {
	return e.ClassMethod() + " " + e.Signature + " " + e.Location
}

func classMethod(method string) string {
	return strings.TrimLeftFunc(method, func(r rune) bool { return !unicode.IsLetter(r) })
}

// ThreadTrace is the ordered call record of one thread.
type ThreadTrace struct {
	Name   string
	Events []Event
}

// TraceDocument is a parsed decoded trace.
type TraceDocument struct {
	Version int
	Threads map[ThreadID]*ThreadTrace
}

// ThreadIDs returns the document's thread ids in ascending order.
func (d *TraceDocument) ThreadIDs() []ThreadID {
	ids := make([]ThreadID, 0, len(d.Threads))
	for tid := range d.Threads {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var (
	versionRe = regexp.MustCompile(`^VERSION: ([0-9]+)\s*$`)
	threadsRe = regexp.MustCompile(`^Threads \(([0-9]+)\):\s*$`)
	// tid, kind, marks, depth, method, signature, location
	eventRe = regexp.MustCompile(`^([0-9]+)[ \t]+(ent|xit|unr)(!*)[ \t]+([0-9]+)[ \t\-+]+([^ \t]+)[ \t]+([^ \t]+)[ \t]+([^ \t]+)`)
)

// ParseTrace parses decoded trace text into a TraceDocument.
//
// The expected layout is a version line, a thread-count line, one declaration
// line per thread, a blank separator and then event lines up to the next
// blank line (or end of input). Events keep file order within their thread.
// Threads without any event are dropped. Any deviation from the layout yields
// a *MalformedTraceError.
func ParseTrace(text string) (*TraceDocument, error) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	idx := 0
	next := func() (string, bool) {
		if idx >= len(lines) {
			return "", false
		}
		l := lines[idx]
		idx++
		return l, true
	}

	line, ok := next()
	if !ok {
		return nil, malformed(0, "missing version line")
	}
	m := versionRe.FindStringSubmatch(line)
	if m == nil {
		return nil, malformed(idx, "expected %q, got %q", "VERSION: <int>", line)
	}
	version, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, malformed(idx, "version %q out of range", m[1])
	}

	line, ok = next()
	if !ok {
		return nil, malformed(0, "missing thread count line")
	}
	m = threadsRe.FindStringSubmatch(line)
	if m == nil {
		return nil, malformed(idx, "expected %q, got %q", "Threads (<int>):", line)
	}
	threadCount, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, malformed(idx, "thread count %q out of range", m[1])
	}

	doc := &TraceDocument{Version: version, Threads: make(map[ThreadID]*ThreadTrace, threadCount)}
	for i := 0; i < threadCount; i++ {
		line, ok = next()
		if !ok {
			return nil, malformed(0, "declared %d threads, found %d", threadCount, i)
		}
		tid, name, err := parseThreadDecl(line)
		if err != nil {
			return nil, malformed(idx, "%v", err)
		}
		if _, dup := doc.Threads[tid]; dup {
			return nil, malformed(idx, "duplicate thread id %d", tid)
		}
		doc.Threads[tid] = &ThreadTrace{Name: name}
	}

	line, ok = next()
	if !ok {
		return nil, malformed(0, "missing blank line after thread declarations")
	}
	if strings.TrimSpace(line) != "" {
		return nil, malformed(idx, "expected blank line after %d thread declarations, got %q", threadCount, line)
	}

	for {
		line, ok = next()
		if !ok || strings.TrimSpace(line) == "" {
			break
		}
		tid, ev, err := parseEventLine(line)
		if err != nil {
			return nil, malformed(idx, "%v", err)
		}
		th, known := doc.Threads[tid]
		if !known {
			return nil, malformed(idx, "event for undeclared thread %d", tid)
		}
		th.Events = append(th.Events, ev)
	}

	for tid, th := range doc.Threads {
		if len(th.Events) == 0 {
			logrus.Debugf("dropping thread %d (%q): no events", tid, th.Name)
			delete(doc.Threads, tid)
		}
	}
	return doc, nil
}

func parseThreadDecl(line string) (ThreadID, string, error) {
	idStr, name := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		idStr, name = line[:i], line[i+1:]
	}
	tid, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil || tid < 0 {
		return 0, "", fmt.Errorf("bad thread declaration %q", line)
	}
	return ThreadID(tid), name, nil
}

func parseEventLine(line string) (ThreadID, Event, error) {
	m := eventRe.FindStringSubmatch(line)
	if m == nil {
		return 0, Event{}, fmt.Errorf("unparsable event line %q", line)
	}
	tid, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, Event{}, fmt.Errorf("bad thread id in %q", line)
	}
	return ThreadID(tid), Event{
		Kind:      EventKind(m[2]),
		Marks:     m[3],
		Method:    m[5],
		Signature: m[6],
		Location:  m[7],
	}, nil
}

// Format renders the document back into decoded-trace text. Threads appear in
// id order; depth is not retained by parsing and is written as 0.
// ParseTrace(d.Format()) reproduces d.
func (d *TraceDocument) Format() string {
	var sb strings.Builder
	ids := d.ThreadIDs()
	fmt.Fprintf(&sb, "VERSION: %d\n", d.Version)
	fmt.Fprintf(&sb, "Threads (%d):\n", len(ids))
	for _, tid := range ids {
		fmt.Fprintf(&sb, "%d %s\n", tid, d.Threads[tid].Name)
	}
	sb.WriteString("\n")
	for _, tid := range ids {
		for _, ev := range d.Threads[tid].Events {
			fmt.Fprintf(&sb, "%d\t%s%s\t0\t%s\t%s\t%s\n", tid, ev.Kind, ev.Marks, ev.Method, ev.Signature, ev.Location)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
