package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	ai "github.com/ncecere/completion-sdk"
	"github.com/ncecere/completion-sdk/registry"
)

// EventType describes the kind of agent event.
type EventType string

const (
	EventTypeStart      EventType = "start"
	EventTypeMessage    EventType = "message"
	EventTypeToolStart  EventType = "tool_start"
	EventTypeToolResult EventType = "tool_result"
	EventTypeError      EventType = "error"
	EventTypeDone       EventType = "done"
)

// Event represents a single step in an agent run that can be streamed
// to callers (for example over Server-Sent Events).
type Event struct {
	Type EventType `json:"type"`
	// RunID identifies the run that produced the event.
	RunID string `json:"run_id"`
	// Role is set for message events.
	Role string `json:"role,omitempty"`
	// Content contains message text, tool output, or an error description.
	Content string `json:"content,omitempty"`
	// Tool is the name of the tool for tool-related events.
	Tool string `json:"tool,omitempty"`
}

// EventEmitter is a callback used to observe agent events.
type EventEmitter func(Event)

// Tool represents a callable tool that can be used by an agent.
type Tool struct {
	// Name is the tool name advertised to the model.
	Name string
	// Description is a human-readable description of the tool.
	Description string
	// Parameters is an optional JSON Schema describing the tool input.
	Parameters json.RawMessage
	// Execute is invoked when the model calls this tool with the raw
	// JSON arguments it produced. A string result is returned as-is;
	// anything else is JSON-encoded.
	Execute func(ctx context.Context, args json.RawMessage) (any, error)
}

// Config contains the static configuration for an agent run. Either
// Model or Registry and ModelName must be set; Model wins when both are.
type Config struct {
	Model ai.CompletionModel

	Registry  registry.Registry
	ModelName string

	// Preamble is sent as the system prompt.
	Preamble string

	// Tools maps tool name to implementation. Keys are the names the
	// model sees; Tool.Name is ignored when it differs.
	Tools map[string]Tool
}

// Result represents the outcome of an agent run.
type Result struct {
	RunID string
	// Choice is the model's raw decision.
	Choice ai.ModelChoice
	// Output is the message text, or the tool output when the model
	// called a tool.
	Output string
	// Tool is the name of the executed tool, empty for message replies.
	Tool string
}

func (c *Config) model() (ai.CompletionModel, error) {
	if c.Model != nil {
		return c.Model, nil
	}
	if c.Registry == nil {
		return nil, &ai.InvalidArgumentError{Parameter: "Model", Value: nil, Message: "either Model or Registry must be set"}
	}
	if c.ModelName == "" {
		return nil, &ai.InvalidArgumentError{Parameter: "ModelName", Value: c.ModelName, Message: "must not be empty"}
	}
	return c.Registry.CompletionModel(c.ModelName)
}

// toolDefinitions returns the configured tools sorted by name so
// request bodies are stable across runs.
func (c *Config) toolDefinitions() []ai.ToolDefinition {
	if len(c.Tools) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ai.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := c.Tools[name]
		defs = append(defs, ai.ToolDefinition{
			Name:        name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Run prompts the configured model once. A message reply becomes the
// output; a tool call executes the named tool and its result becomes
// the output.
func Run(ctx context.Context, cfg Config, prompt string, history []ai.Message) (*Result, error) {
	return RunWithEvents(ctx, cfg, prompt, history, nil)
}

// RunWithEvents is like Run but invokes emit for each step of the run.
func RunWithEvents(ctx context.Context, cfg Config, prompt string, history []ai.Message, emit EventEmitter) (*Result, error) {
	runID := uuid.NewString()
	emitEvent := func(e Event) {
		if emit != nil {
			e.RunID = runID
			emit(e)
		}
	}
	fail := func(err error, tool string) (*Result, error) {
		emitEvent(Event{Type: EventTypeError, Content: err.Error(), Tool: tool})
		return nil, err
	}

	model, err := cfg.model()
	if err != nil {
		return fail(err, "")
	}
	emitEvent(Event{Type: EventTypeStart})

	res, err := ai.Generate(ctx, ai.GenerateRequest{
		Model:       model,
		Preamble:    cfg.Preamble,
		ChatHistory: history,
		Prompt:      prompt,
		Tools:       cfg.toolDefinitions(),
	})
	if err != nil {
		return fail(err, "")
	}

	result := &Result{RunID: runID, Choice: res.Choice}

	if !res.Choice.IsToolCall() {
		result.Output = res.Choice.Text
		emitEvent(Event{Type: EventTypeMessage, Role: ai.RoleAssistant, Content: result.Output})
		emitEvent(Event{Type: EventTypeDone})
		return result, nil
	}

	name := res.Choice.ToolName
	tool, ok := cfg.Tools[name]
	if !ok || tool.Execute == nil {
		return fail(&ai.UnsupportedFunctionalityError{
			Feature: "agent.tool",
			Message: fmt.Sprintf("no tool registered with name %q", name),
		}, name)
	}

	emitEvent(Event{Type: EventTypeToolStart, Tool: name})

	out, err := tool.Execute(ctx, res.Choice.ToolArguments)
	if err != nil {
		return fail(fmt.Errorf("agent: tool %q: %w", name, err), name)
	}

	output, err := encodeOutput(out)
	if err != nil {
		return fail(fmt.Errorf("agent: encoding %q output: %w", name, err), name)
	}

	result.Tool = name
	result.Output = output
	emitEvent(Event{Type: EventTypeToolResult, Tool: name, Content: output})
	emitEvent(Event{Type: EventTypeDone})
	return result, nil
}

func encodeOutput(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
