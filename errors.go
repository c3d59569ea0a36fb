package ai

import "errors"

// Package-level error values and types returned by the ai package.
var (
	// ErrMissingModel is returned when a GenerateRequest does not
	// specify a CompletionModel.
	ErrMissingModel = errors.New("ai: missing CompletionModel in request")

	// ErrUnexpectedToolCall is returned by text helpers such as Prompt
	// when the model answers with a tool call instead of a message.
	ErrUnexpectedToolCall = errors.New("ai: model returned a tool call")

	// ErrNotToolCall is returned by DecodeToolCallArgs when the choice
	// is a plain message.
	ErrNotToolCall = errors.New("ai: choice is not a tool call")
)

// InvalidArgumentError indicates that a function argument is invalid.
type InvalidArgumentError struct {
	// Parameter is the name of the invalid parameter.
	Parameter string
	// Value is the offending value.
	Value any
	// Message describes why the value is considered invalid.
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "ai: invalid argument for parameter " + e.Parameter + ": " + e.Message
}

// UnsupportedFunctionalityError indicates that a requested feature is
// not supported by the current implementation.
type UnsupportedFunctionalityError struct {
	// Feature describes the unsupported feature, e.g. "agent.tool".
	Feature string
	// Message is an optional explanatory message.
	Message string
}

func (e *UnsupportedFunctionalityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return "ai: unsupported functionality (" + e.Feature + "): " + e.Message
	}
	return "ai: unsupported functionality (" + e.Feature + ")"
}
