package listing

import (
	"errors"
	"fmt"

	"github.com/matsen/coauthor/internal/period"
)

// ErrStructural is wrapped by every StructuralError.
var ErrStructural = errors.New("structural extraction error")

// maxQuotedLine bounds how much of the offending line is quoted in errors.
const maxQuotedLine = 120

// StructuralError reports a listing that does not follow the marker order,
// or whose declared total disagrees with the records extracted.
type StructuralError struct {
	Period period.Period
	Line   int    // 1-based; 0 when the error is not tied to a line
	Text   string // Offending line, if any
	Reason string
}

func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("listing %s", e.Period)
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Text != "" {
		text := e.Text
		if len(text) > maxQuotedLine {
			text = text[:maxQuotedLine] + "..."
		}
		msg += fmt.Sprintf(" (%q)", text)
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// IsStructural returns true if err is, or wraps, a StructuralError.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

func structuralf(p period.Period, format string, args ...any) *StructuralError {
	return &StructuralError{Period: p, Reason: fmt.Sprintf(format, args...)}
}
