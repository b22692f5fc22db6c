// Package errs classifies failures surfaced by the recommendation and
// choice engine so callers can react to the kind of error rather than its text.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the category of an engine error.
type Kind int

const (
	// Unknown is an unclassified error.
	Unknown Kind = iota
	// NotFound indicates a missing event, group, user or restaurant.
	NotFound
	// InvalidInput indicates a value outside its closed domain or a
	// request that can never succeed as written.
	InvalidInput
	// Unauthorized indicates the actor may not perform the operation.
	Unauthorized
	// Conflict indicates the operation contradicts committed state.
	Conflict
	// Timeout indicates an exclusive scope could not be acquired in time.
	Timeout
	// Upstream indicates a collaborator (store, places lookup) failed.
	Upstream
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case Timeout:
		return "timeout"
	case Upstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is a classified error wrapping its cause.
type Error struct {
	Kind Kind
	Err  error
}

// E wraps err with kind.
func E(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a new error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost classified error in err's chain,
// or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Wrap classifies an error crossing a component boundary. Classified errors
// keep their kind, context deadlines become Timeout, and anything else is
// attributed to the collaborator as Upstream. A canceled context is the
// caller's doing and stays unclassified.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != Unknown {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return E(Timeout, fmt.Errorf("%s: %w", op, err))
	}
	return E(Upstream, fmt.Errorf("%s: %w", op, err))
}
