package deepseek

import (
	"bytes"
	"encoding/json"
)

// CompletionResponse is the decoded body of a successful chat
// completion. It is exposed as provider.CompletionResponse.RawResponse.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object,omitempty"`
	Created int64    `json:"created,omitempty"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Index        int           `json:"index"`
}

type ChoiceMessage struct {
	Role             string    `json:"role,omitempty"`
	Content          *string   `json:"content"`
	ReasoningContent *string   `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolUse `json:"tool_calls,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolUse is a tool invocation emitted by the model.
type ToolUse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// UnmarshalJSON accepts both the flat {id, name, arguments} shape and
// the {id, type, function: {name, arguments}} shape. String-encoded
// arguments holding valid JSON are unwrapped.
func (t *ToolUse) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
		Function  *struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	name, args := wire.Name, wire.Arguments
	if wire.Function != nil {
		if name == "" {
			name = wire.Function.Name
		}
		if len(args) == 0 {
			args = wire.Function.Arguments
		}
	}

	t.ID = wire.ID
	t.Name = name
	t.Arguments = unwrapArguments(args)
	return nil
}

func unwrapArguments(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw
	}
	if !json.Valid([]byte(s)) {
		return raw
	}
	return json.RawMessage(s)
}

// APIError is the error object the API returns in place of a completion.
type APIError struct {
	Message string          `json:"message"`
	Type    string          `json:"type,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// APIResponse is the reply envelope: exactly one of Response and Error
// is set after decoding. Bodies with a non-null top-level "error"
// object decode as Error; all others as Response.
type APIResponse struct {
	Response *CompletionResponse
	Error    *APIError
}

func (r *APIResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		r.Response, r.Error = nil, probe.Error
		return nil
	}

	var resp CompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	r.Response, r.Error = &resp, nil
	return nil
}
