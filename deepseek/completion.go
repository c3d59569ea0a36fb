package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ncecere/completion-sdk/jsonutil"
	"github.com/ncecere/completion-sdk/provider"
	"github.com/ncecere/completion-sdk/providerutil"
)

// DefaultMaxTokens is sent when a request does not set MaxTokens.
const DefaultMaxTokens = 2048

// emptyParameters is the schema sent for tools declared without one.
var emptyParameters = json.RawMessage(`{"type":"object","properties":{}}`)

type completionModel struct {
	client *Client
	model  string
}

// Completion sends req to the chat completions endpoint. Every failure
// is returned as a *provider.CompletionError; the call is never retried.
// The RawResponse of a successful result is a *CompletionResponse.
func (m *completionModel) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	if req == nil {
		req = &provider.CompletionRequest{}
	}
	url := m.client.chatCompletionsURL()
	log := m.client.logger.WithFields(logrus.Fields{"model": m.model, "url": url})

	buf, err := json.Marshal(buildRequestBody(m.model, req))
	if err != nil {
		return nil, &provider.CompletionError{Kind: provider.ErrorKindProvider, Message: "encoding request: " + err.Error(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, &provider.CompletionError{Kind: provider.ErrorKindProvider, Message: err.Error(), Err: err}
	}
	httpReq.Header = m.client.newRequestHeaders()

	log.Debug("Sending chat completion request")
	resp, err := m.client.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Error("DeepSeek request failed")
		return nil, &provider.CompletionError{Kind: provider.ErrorKindProvider, Message: err.Error(), Err: err}
	}

	data, err := providerutil.ReadBody(resp)
	if err != nil {
		log.WithFields(logrus.Fields{"status": resp.StatusCode}).WithError(err).Error("DeepSeek API error")
		return nil, err
	}
	log.WithField("status", resp.StatusCode).Debug("Received chat completion response")

	var envelope APIResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &provider.CompletionError{Kind: provider.ErrorKindResponse, Message: err.Error(), Err: err}
	}
	if envelope.Error != nil {
		log.WithField("type", envelope.Error.Type).Warn("DeepSeek returned an error object")
		return nil, provider.NewProviderError(envelope.Error.Message)
	}
	return resolve(envelope.Response)
}

// buildRequestBody assembles the wire body for req. AdditionalParams
// are merged last and win on key conflicts.
func buildRequestBody(model string, req *provider.CompletionRequest) map[string]any {
	messages := make([]map[string]any, 0, len(req.ChatHistory)+2)
	if req.Preamble != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.Preamble})
	}
	for _, msg := range req.ChatHistory {
		messages = append(messages, map[string]any{"role": msg.Role, "content": msg.Content})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.PromptWithContext()})

	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	body := map[string]any{
		"model":      model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			params := t.Parameters
			if len(params) == 0 {
				params = emptyParameters
			}
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  params,
				},
			})
		}
		body["tools"] = tools
	}

	if len(req.AdditionalParams) > 0 {
		jsonutil.Merge(body, req.AdditionalParams)
	}
	return body
}

// resolve turns a decoded reply into a provider result. Only the first
// choice is considered, and a tool call always takes precedence over
// text. Tool calls after the first are dropped.
func resolve(resp *CompletionResponse) (*provider.CompletionResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, provider.NewResponseError("no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return &provider.CompletionResponse{
			Choice:      provider.ToolCallChoice(call.Name, call.Arguments),
			RawResponse: resp,
		}, nil
	}
	if msg.Content != nil {
		return &provider.CompletionResponse{
			Choice:      provider.MessageChoice(*msg.Content),
			RawResponse: resp,
		}, nil
	}
	return nil, provider.NewResponseError("no content or tool call")
}
