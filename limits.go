package multipart

import "fmt"

// Limit names the dimension a LimitError was raised for.
type Limit int

const (
	LimitParts Limit = iota + 1
	LimitTotalSize
	LimitPartSize
	LimitFieldSize
)

func (l Limit) String() string {
	switch l {
	case LimitParts:
		return "max parts"
	case LimitTotalSize:
		return "max total size"
	case LimitPartSize:
		return "max part size"
	case LimitFieldSize:
		return "max field size"
	default:
		return fmt.Sprintf("Limit(%d)", int(l))
	}
}

// limiter keeps the counters checked against Settings. Counters only grow,
// except the per-part ones, which start over with every part.
type limiter struct {
	settings Settings

	parts, total, part, field int64
}

func (l *limiter) exceeds(ceiling, value int64) bool {
	return ceiling > 0 && value > ceiling
}

// partStarted accounts a new part
func (l *limiter) partStarted() error {
	l.parts++
	l.part = 0
	l.field = 0
	if l.exceeds(l.settings.MaxParts, l.parts) {
		return &LimitError{Limit: LimitParts}
	}

	return nil
}

// body accounts n bytes admitted to the current part's body
func (l *limiter) body(n int) error {
	l.total += int64(n)
	l.part += int64(n)

	switch {
	case l.exceeds(l.settings.MaxTotalSize, l.total):
		return &LimitError{Limit: LimitTotalSize}
	case l.exceeds(l.settings.MaxPartSize, l.part):
		return &LimitError{Limit: LimitPartSize}
	}

	return nil
}

// fieldBytes accounts n bytes admitted to the current field's buffer
func (l *limiter) fieldBytes(n int) error {
	l.field += int64(n)
	if l.exceeds(l.settings.MaxFieldSize, l.field) {
		return &LimitError{Limit: LimitFieldSize}
	}

	return nil
}
