package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// HTTPClient is the minimal interface required from an HTTP client.
// It matches the Do method on *http.Client and allows callers to
// substitute custom clients or middleware.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOptions are shared options for all provider clients.
// Providers typically embed these options in their own option types.
type ClientOptions struct {
	// BaseURL is the root URL of the provider API.
	BaseURL string
	// APIKey is the API key or bearer token used for authentication.
	APIKey string
	// HTTPClient is the underlying HTTP client. If nil, a default
	// client should be used by the provider.
	HTTPClient HTTPClient
	// Headers contains additional HTTP headers that providers should
	// attach to every outbound request. Provider implementations
	// decide how these interact with their own required headers.
	Headers http.Header
}

// CompletionModel is the provider-level interface for chat completion
// models. Implementations map a CompletionRequest to the provider's
// wire format and resolve the reply into a ModelChoice.
//
// Implementations must be safe for concurrent use.
type CompletionModel interface {
	Completion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Message is a single chat turn. Providers map Role and Content to
// whatever structure their HTTP API expects.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Document is a piece of context attached to a prompt.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ToolDefinition describes a tool with JSON schema parameters.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// CompletionRequest describes a single chat turn sent to a completion
// model: prior history, the current prompt and generation parameters.
type CompletionRequest struct {
	// Preamble is an optional system prompt placed before the history.
	Preamble string
	// ChatHistory is the ordered list of prior turns.
	ChatHistory []Message
	// Prompt is the current user prompt.
	Prompt string
	// Documents are rendered ahead of the prompt by PromptWithContext.
	Documents []Document
	// Temperature controls randomness of the output. Nil leaves the
	// provider default in place.
	Temperature *float64
	// MaxTokens limits the number of tokens produced.
	MaxTokens *int
	// Tools defines tools the model may call.
	Tools []ToolDefinition
	// AdditionalParams holds provider-specific fields merged into the
	// request body after all typed fields.
	AdditionalParams map[string]any
}

// PromptWithContext returns the prompt with any attached documents
// rendered in front of it.
func (r *CompletionRequest) PromptWithContext() string {
	if len(r.Documents) == 0 {
		return r.Prompt
	}
	var b strings.Builder
	b.WriteString("<attachments>\n")
	for _, doc := range r.Documents {
		b.WriteString("<file id: ")
		b.WriteString(doc.ID)
		b.WriteString(">\n")
		b.WriteString(doc.Text)
		b.WriteString("\n</file>\n")
	}
	b.WriteString("</attachments>\n\n")
	b.WriteString(r.Prompt)
	return b.String()
}

// ChoiceKind discriminates the two shapes of a ModelChoice.
type ChoiceKind string

const (
	ChoiceMessage  ChoiceKind = "message"
	ChoiceToolCall ChoiceKind = "tool_call"
)

// ModelChoice is either a plain assistant message or a tool invocation.
type ModelChoice struct {
	Kind ChoiceKind
	// Text is set for ChoiceMessage.
	Text string
	// ToolName and ToolArguments are set for ChoiceToolCall.
	ToolName      string
	ToolArguments json.RawMessage
}

// MessageChoice returns a ModelChoice carrying assistant text.
func MessageChoice(text string) ModelChoice {
	return ModelChoice{Kind: ChoiceMessage, Text: text}
}

// ToolCallChoice returns a ModelChoice carrying a tool invocation.
func ToolCallChoice(name string, args json.RawMessage) ModelChoice {
	return ModelChoice{Kind: ChoiceToolCall, ToolName: name, ToolArguments: args}
}

// IsToolCall reports whether the choice is a tool invocation.
func (c ModelChoice) IsToolCall() bool {
	return c.Kind == ChoiceToolCall
}

// CompletionResponse is the provider-agnostic result of a completion
// call. RawResponse holds the provider's decoded reply for diagnostics;
// its concrete type is documented by each provider.
type CompletionResponse struct {
	Choice      ModelChoice
	RawResponse any
}
