package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrPlaceholderNotFound is returned when a turn completes but its
	// loading placeholder is gone or already final.
	ErrPlaceholderNotFound = errors.New("placeholder message not found")

	// ErrStaleTurn is returned when a result arrives for a turn that is not
	// the one in flight.
	ErrStaleTurn = errors.New("turn is not in flight")
)

// ServiceError reports a failed conversation or message persistence call.
type ServiceError struct {
	Op         string // "create_conversation", "post_message", "list_messages"
	StatusCode int    // 0 for transport failures
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("conversation service %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("conversation service %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// GenerationError reports a failed reply generation.
type GenerationError struct {
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("reply generation failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("reply generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// asTurnError normalizes an error raised during a turn so callers only ever
// see the two typed kinds.
func asTurnError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Err: err}
}
