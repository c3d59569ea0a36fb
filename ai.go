package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ncecere/completion-sdk/provider"
	"github.com/ncecere/completion-sdk/registry"
)

// Role constants for chat messages.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// Aliases to provider-level types so users can work through the ai package
// while providers implement the shared interfaces.
type (
	// Message is a single chat turn with role and content.
	Message = provider.Message
	// Document is context rendered ahead of the prompt.
	Document = provider.Document
	// ToolDefinition describes a callable tool with a JSON schema.
	ToolDefinition = provider.ToolDefinition
	// ModelChoice is either assistant text or a tool call.
	ModelChoice = provider.ModelChoice
	// CompletionModel is a provider-agnostic chat completion model.
	CompletionModel = provider.CompletionModel
)

// GenerateRequest is a high-level request for a single completion.
type GenerateRequest struct {
	// Model is the completion model used to generate the response.
	Model CompletionModel
	// Preamble is an optional system prompt.
	Preamble string
	// ChatHistory is the ordered list of prior turns.
	ChatHistory []Message
	// Prompt is the current user prompt.
	Prompt string
	// Documents are attached as context ahead of the prompt.
	Documents []Document
	// Temperature controls randomness of the output.
	Temperature *float64
	// MaxTokens limits the number of tokens produced.
	MaxTokens *int
	// Tools defines tools the model may call.
	Tools []ToolDefinition
	// AdditionalParams are provider-specific fields that override
	// anything derived from the typed fields above.
	AdditionalParams map[string]any
}

// GenerateResponse is the result of a completion call.
type GenerateResponse struct {
	// Choice is the resolved message or tool call.
	Choice ModelChoice
	// RawResponse is the provider's decoded reply.
	RawResponse any
}

// Generate calls the underlying CompletionModel.Completion.
//
// Errors:
//   - ErrMissingModel if req.Model is nil.
//   - Any error returned by the provider; provider adapters return a
//     *provider.CompletionError.
func Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if req.Model == nil {
		return GenerateResponse{}, ErrMissingModel
	}

	res, err := req.Model.Completion(ctx, &provider.CompletionRequest{
		Preamble:         req.Preamble,
		ChatHistory:      req.ChatHistory,
		Prompt:           req.Prompt,
		Documents:        req.Documents,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		Tools:            req.Tools,
		AdditionalParams: req.AdditionalParams,
	})
	if err != nil {
		return GenerateResponse{}, err
	}

	return GenerateResponse{
		Choice:      res.Choice,
		RawResponse: res.RawResponse,
	}, nil
}

// GenerateWithRegistry looks up the model by name in reg and then
// delegates to Generate. Any Model value in req is replaced.
//
// Errors:
//   - InvalidArgumentError if reg is nil.
//   - Any error returned by reg.CompletionModel.
//   - Any error returned by Generate.
func GenerateWithRegistry(ctx context.Context, reg registry.Registry, modelName string, req GenerateRequest) (GenerateResponse, error) {
	if reg == nil {
		return GenerateResponse{}, &InvalidArgumentError{Parameter: "reg", Value: nil, Message: "registry must not be nil"}
	}

	model, err := reg.CompletionModel(modelName)
	if err != nil {
		return GenerateResponse{}, err
	}

	req.Model = model
	return Generate(ctx, req)
}

// Prompt sends a single user prompt and returns the reply text.
// A tool call reply yields ErrUnexpectedToolCall.
func Prompt(ctx context.Context, model CompletionModel, prompt string) (string, error) {
	return Chat(ctx, model, prompt, nil)
}

// Chat is like Prompt but sends history ahead of the prompt.
func Chat(ctx context.Context, model CompletionModel, prompt string, history []Message) (string, error) {
	res, err := Generate(ctx, GenerateRequest{
		Model:       model,
		ChatHistory: history,
		Prompt:      prompt,
	})
	if err != nil {
		return "", err
	}
	return messageText(res.Choice)
}

// PromptWithRegistry is Prompt for a model resolved from reg.
func PromptWithRegistry(ctx context.Context, reg registry.Registry, modelName, prompt string) (string, error) {
	res, err := GenerateWithRegistry(ctx, reg, modelName, GenerateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return messageText(res.Choice)
}

func messageText(choice ModelChoice) (string, error) {
	if choice.IsToolCall() {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedToolCall, choice.ToolName)
	}
	return choice.Text, nil
}

// DecodeToolCallArgs decodes the JSON arguments of a tool call choice into v.
func DecodeToolCallArgs[T any](choice ModelChoice, v *T) error {
	if !choice.IsToolCall() {
		return ErrNotToolCall
	}
	if len(choice.ToolArguments) == 0 {
		return fmt.Errorf("ai: tool call %q has no arguments", choice.ToolName)
	}
	if err := json.Unmarshal(choice.ToolArguments, v); err != nil {
		return fmt.Errorf("ai: decoding tool call arguments: %w", err)
	}
	return nil
}
