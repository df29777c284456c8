package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ⭐ SSOT: completeness 에러 분류는 여기서만 정의

var (
	// ErrNotFound marks a requested product identifier without a mask
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks a loader or gateway that could not be reached
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedMask marks a code or mask that violates the mask model
	ErrMalformedMask = errors.New("malformed mask")

	// ErrInvalidArgument marks a call that breaks a precondition
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError lists the product identifiers the product mask loader did not resolve
type NotFoundError struct {
	Identifiers []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product mask not found for identifiers: %s", strings.Join(e.Identifiers, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamUnavailableError wraps a transport or storage failure of a collaborator
type UpstreamUnavailableError struct {
	Op  string
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s: upstream unavailable: %v", e.Op, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstreamUnavailable) hold
func (e *UpstreamUnavailableError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// Unavailable wraps err as an UpstreamUnavailableError, nil stays nil
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamUnavailableError{Op: op, Err: err}
}

// MalformedMaskError reports a code that cannot be read as attribute/channel/locale,
// or a mask that breaks its invariants
type MalformedMaskError struct {
	Code   string
	Reason string
}

func (e *MalformedMaskError) Error() string {
	return fmt.Sprintf("malformed mask code %q: %s", e.Code, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedMask) hold
func (e *MalformedMaskError) Is(target error) bool {
	return target == ErrMalformedMask
}
