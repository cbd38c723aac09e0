package session

import (
	"context"
	"errors"

	"storefront/internal/commerce"
)

// User-facing messages. Each failure class has its own so the caller can
// tell the user what to do next.
const (
	MsgFieldsRequired     = "Email and password are required."
	MsgInvalidCredentials = "Invalid email or password."
	MsgUnreachable        = "Could not connect to the backend. Is your server running?"
	MsgMalformed          = "Unexpected response from the server. Please try again."
	MsgSignupFailed       = "Signup failed. Please try again."
)

type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindInvalidCredentials
	KindUnreachable
	KindMalformed
)

var (
	ErrInvalidInput       = errors.New("session: invalid input")
	ErrInvalidCredentials = errors.New("session: credentials rejected")
	ErrUnreachable        = errors.New("session: backend unreachable")
	ErrMalformed          = errors.New("session: malformed backend response")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindUnreachable:
		return ErrUnreachable
	case KindMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnreachable:
		return "unreachable"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// AuthError is a login or signup failure. Error() is the message to show.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// classify turns a commerce error into an AuthError. rejected is the
// message used when a non-2xx response carries none of its own.
func classify(err error, rejected string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *commerce.StatusError
	switch {
	case errors.As(err, &se):
		msg := se.Message
		if msg == "" {
			msg = rejected
		}
		return &AuthError{Kind: KindInvalidCredentials, Message: msg, Err: err}
	case errors.Is(err, commerce.ErrUnreachable):
		return &AuthError{Kind: KindUnreachable, Message: MsgUnreachable, Err: err}
	case errors.Is(err, commerce.ErrMalformed):
		return &AuthError{Kind: KindMalformed, Message: MsgMalformed, Err: err}
	default:
		return &AuthError{Kind: KindUnreachable, Message: MsgUnreachable, Err: err}
	}
}
