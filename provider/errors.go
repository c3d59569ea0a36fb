package provider

import (
	"errors"
	"strconv"
)

// ErrorKind classifies a CompletionError.
type ErrorKind string

const (
	// ErrorKindProvider means the remote vendor reported a problem or
	// the transport returned a non-success status.
	ErrorKindProvider ErrorKind = "provider"
	// ErrorKindResponse means the reply could not be interpreted locally.
	ErrorKindResponse ErrorKind = "response"
)

// Sentinels matched by errors.Is against any CompletionError of the
// corresponding kind.
var (
	ErrProvider = errors.New("provider: provider error")
	ErrResponse = errors.New("provider: response error")
)

// CompletionError is the single error type returned by completion
// models. Both kinds are terminal for the call that produced them.
type CompletionError struct {
	Kind ErrorKind
	// Message is the vendor-supplied or locally generated description.
	Message string
	// StatusCode is the HTTP status when the error came from a non-2xx
	// reply, zero otherwise.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

// NewProviderError returns a CompletionError of kind ErrorKindProvider.
func NewProviderError(message string) *CompletionError {
	return &CompletionError{Kind: ErrorKindProvider, Message: message}
}

// NewResponseError returns a CompletionError of kind ErrorKindResponse.
func NewResponseError(message string) *CompletionError {
	return &CompletionError{Kind: ErrorKindResponse, Message: message}
}

func (e *CompletionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "completion: " + string(e.Kind) + " error"
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *CompletionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *CompletionError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrProvider:
		return e.Kind == ErrorKindProvider
	case ErrResponse:
		return e.Kind == ErrorKindResponse
	}
	return false
}

// IsProviderError reports whether err is, or wraps, a provider error.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider)
}

// IsResponseError reports whether err is, or wraps, a response error.
func IsResponseError(err error) bool {
	return errors.Is(err, ErrResponse)
}
