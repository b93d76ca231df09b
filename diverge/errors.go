package diverge

import "fmt"

// MalformedTraceError reports decoded trace text that does not follow the
// expected grammar. Line is 1-based; 0 means the input ended early.
type MalformedTraceError struct {
	Line   int
	Reason string
}

func (e *MalformedTraceError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed trace: %s", e.Reason)
	}
	return fmt.Sprintf("malformed trace at line %d: %s", e.Line, e.Reason)
}

func malformed(line int, format string, args ...interface{}) error {
	return &MalformedTraceError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
