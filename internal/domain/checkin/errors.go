package checkin

import (
	"context"
	"errors"
	"fmt"
)

type Kind int

const (
	KindTransport Kind = iota + 1
	KindTimeout
	KindUnexpectedResponse
	KindLoginRejected
	KindMissingCredentials
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindUnexpectedResponse:
		return "unexpected_response"
	case KindLoginRejected:
		return "login_rejected"
	case KindMissingCredentials:
		return "missing_credentials"
	default:
		return "unknown"
	}
}

// FailureMessage is the only failure text shown to callers and chat.
const FailureMessage = "checkin failed"

// Error is a failed session step. Err keeps the cause for logs.
type Error struct {
	Kind Kind
	Op   string // login, checkin
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// Retryable reports whether another attempt could change the outcome.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindLoginRejected, KindMissingCredentials:
		return false
	}
	return true
}

// PublicMessage maps an error to caller-facing text. Session errors collapse
// to FailureMessage; anything else (configuration) keeps its own text.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return FailureMessage
	}
	return err.Error()
}
