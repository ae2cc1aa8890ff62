// Package errors defines typed errors with categories for user-friendly reporting.
// Every authentication outcome that is not a success carries one of the kinds
// below, so callers can branch on the category without string matching and
// still print the wrapped cause when they need detail.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Validation indicates a missing or malformed input detected locally.
	// No remote call was made.
	Validation Kind = "validation"
	// AuthenticationFailed indicates the identity service rejected the credentials
	// or the presented session.
	AuthenticationFailed Kind = "authentication_failed"
	// TransportFailed indicates a network failure or an identity service fault.
	TransportFailed Kind = "transport_failed"
	// NoSession is the expected outcome of "who am I" for a logged-out user.
	NoSession Kind = "no_session"
	// AccountRejected indicates the identity service refused to create an account
	// (duplicate email, weak password).
	AccountRejected Kind = "account_rejected"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
