package ai

import "github.com/ncecere/completion-sdk/jsonutil"

// CallSettings groups generation parameters shared by several requests.
// They take effect only when applied with ApplyTo.
type CallSettings struct {
	// Temperature controls randomness of the output.
	Temperature *float64
	// MaxTokens limits the number of tokens produced.
	MaxTokens *int
	// AdditionalParams are deep-merged under the request's own
	// overrides; keys set on the request win at every depth.
	AdditionalParams map[string]any
}

// ApplyTo copies the non-nil fields into req.
func (s *CallSettings) ApplyTo(req *GenerateRequest) {
	if s == nil {
		return
	}
	if s.Temperature != nil {
		req.Temperature = s.Temperature
	}
	if s.MaxTokens != nil {
		req.MaxTokens = s.MaxTokens
	}
	if len(s.AdditionalParams) > 0 {
		req.AdditionalParams = jsonutil.Merge(jsonutil.Clone(s.AdditionalParams), req.AdditionalParams)
	}
}

// NewGenerateRequest builds a single-prompt request and applies settings.
func NewGenerateRequest(model CompletionModel, prompt string, settings *CallSettings) GenerateRequest {
	req := GenerateRequest{
		Model:  model,
		Prompt: prompt,
	}
	settings.ApplyTo(&req)
	return req
}
