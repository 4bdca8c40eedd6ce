package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors for membership and connection failures. AssertMember
// deliberately returns the same ErrNotFoundOrForbidden for a missing room and
// for a non-member, so callers cannot probe for room existence.
var (
	ErrNotFoundOrForbidden = errors.New("chat room not found or access denied")
	ErrRoomNotFound        = errors.New("chat room not found")
	ErrAlreadyMember       = errors.New("already a member of this room")
	ErrForbidden           = errors.New("cannot join this room without an invitation")
	ErrUnauthenticated     = errors.New("authentication required")
)

// ValidationError reports malformed input (empty content, empty room name).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DependencyError wraps a persistent-store failure. Operations that hit one
// abort with no partial broadcast.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
