package domain

import (
	"context"
	"errors"
)

// Sentinel errors for domain operations
var (
	// ErrConfig indicates missing or invalid credentials or target identifiers
	ErrConfig = errors.New("configuration error")

	// ErrTransient indicates a network failure, server error or rate limit
	ErrTransient = errors.New("temporary failure")

	// ErrSessionExpired indicates the backend rejected the current credential
	ErrSessionExpired = errors.New("session expired")

	// ErrValidation indicates the backend rejected malformed input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the user lacks the role for an action
	ErrForbidden = errors.New("forbidden")

	// ErrNotAuthenticated indicates an action needs a logged-in user
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRetryLimit indicates a collection refused to fetch because it hit
	// the retry ceiling or saw a configuration error
	ErrRetryLimit = errors.New("Maximum retries reached or configuration error")
)

// ErrorKind classifies a failure at the point it is detected
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindConfig
	KindUnauthorized
	KindValidation
	KindNotFound
	KindForbidden
)

var kindSentinels = map[ErrorKind]error{
	KindTransient:    ErrTransient,
	KindConfig:       ErrConfig,
	KindUnauthorized: ErrSessionExpired,
	KindValidation:   ErrValidation,
	KindNotFound:     ErrNotFound,
	KindForbidden:    ErrForbidden,
}

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "transient"
	}
}

// Error is a classified failure. Higher layers branch on Kind, never on Message.
type Error struct {
	Kind    ErrorKind
	Op      string // operation that failed, e.g. "youtube.search"
	Message string // user-facing text
	Status  int    // HTTP status when the failure came from a response
	Err     error  // underlying cause
}

// NewError creates a classified error with a user-facing message
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError classifies an underlying error
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = kindSentinels[e.Kind].Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the classification of err. Unclassified errors are transient.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrSessionExpired):
		return KindUnauthorized
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}
	return KindTransient
}

// IsConfigError reports whether err is a non-retryable configuration failure
func IsConfigError(err error) bool {
	return err != nil && KindOf(err) == KindConfig
}

// IsRetryable reports whether another attempt could succeed.
// Errors are retryable unless classified otherwise.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRetryLimit) || errors.Is(err, ErrNotAuthenticated) {
		return false
	}
	return KindOf(err) == KindTransient
}

// Message returns the user-facing text of err without the operation prefix
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		if de.Err != nil {
			return de.Err.Error()
		}
	}
	return err.Error()
}
