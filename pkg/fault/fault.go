package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a response.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	NotActive
	Duplicate
	Invalid
	StorageFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case NotActive:
		return "NotActive"
	case Duplicate:
		return "Duplicate"
	case Invalid:
		return "Invalid"
	case StorageFailure:
		return "StorageFailure"
	default:
		return "Unknown"
	}
}

var (
	ErrSurveyNotFound    = &Fault{Kind: NotFound, Message: "survey not found"}
	ErrSurveyNotOpen     = &Fault{Kind: NotActive, Message: "survey not open"}
	ErrSurveyFull        = &Fault{Kind: NotActive, Message: "survey has reached its response limit"}
	ErrDuplicateResponse = &Fault{Kind: Duplicate, Message: "duplicate submission"}
	ErrNoAnswers         = &Fault{Kind: Invalid, Message: "at least one answer is required"}

	// ErrUniqueViolation is returned by stores when a uniqueness constraint rejects a write.
	ErrUniqueViolation = &Fault{Kind: Duplicate, Message: "unique violation"}
)

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

// NewNotFound creates a not-found error.
func NewNotFound(msg string) error {
	return &Fault{Kind: NotFound, Message: msg}
}

// Invalidf creates an error for structurally malformed input.
func Invalidf(format string, args ...any) error {
	return &Fault{Kind: Invalid, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence error. Errors that already carry a Kind are returned as is.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return err
	}
	return &Fault{Kind: StorageFailure, Message: op, Err: err}
}

// KindOf returns the Kind of the first Fault in err's chain.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns a message safe to show to a client.
func Message(err error) string {
	var f *Fault
	if errors.As(err, &f) && f.Kind != StorageFailure && f.Kind != Unknown {
		return f.Message
	}
	return "Internal server error"
}
