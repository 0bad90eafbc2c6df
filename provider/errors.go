package provider

import (
	"fmt"

	"github.com/agentloop/agentloop/core"
)

// Error wraps a vendor call failure with its canonical failure kind so the
// orchestrator can tag its error notification without inspecting vendor SDK
// types.
type Error struct {
	Kind     core.ErrorKind
	Provider string
	Status   int // HTTP status when known, 0 otherwise
	Err      error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a provider Error of the given kind.
func NewError(kind core.ErrorKind, providerName string, err error) *Error {
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// WrapStatus wraps a vendor HTTP failure, classifying the status code into a
// canonical kind.
func WrapStatus(providerName string, status int, err error) *Error {
	return &Error{Kind: ClassifyStatus(status), Provider: providerName, Status: status, Err: err}
}

// ClassifyStatus maps an HTTP status to a canonical failure kind.
// Authentication and permission failures (401, 403) get their own kind; all
// other statuses, including none at all, count as transport failures.
func ClassifyStatus(status int) core.ErrorKind {
	switch status {
	case 401, 403:
		return core.ErrKindAuth
	default:
		return core.ErrKindTransport
	}
}
