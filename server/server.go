// Package server exposes registered completion models over HTTP using Fiber.
package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	ai "github.com/ncecere/completion-sdk"
	"github.com/ncecere/completion-sdk/deepseek"
	"github.com/ncecere/completion-sdk/provider"
	"github.com/ncecere/completion-sdk/registry"
)

// Options configures New.
type Options struct {
	// Logger receives request failures. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// CompletionRequest is the JSON body accepted by POST /v1/completions.
type CompletionRequest struct {
	Model            string              `json:"model"`
	Prompt           string              `json:"prompt"`
	Preamble         string              `json:"preamble,omitempty"`
	History          []ai.Message        `json:"history,omitempty"`
	Documents        []ai.Document       `json:"documents,omitempty"`
	Temperature      *float64            `json:"temperature,omitempty"`
	MaxTokens        *int                `json:"max_tokens,omitempty"`
	Tools            []ai.ToolDefinition `json:"tools,omitempty"`
	AdditionalParams map[string]any      `json:"additional_params,omitempty"`
}

// ToolCall is the JSON form of a tool call choice.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// CompletionResponse is the JSON body returned by POST /v1/completions.
type CompletionResponse struct {
	Model    string          `json:"model"`
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ToolCall *ToolCall       `json:"tool_call,omitempty"`
	Usage    *deepseek.Usage `json:"usage,omitempty"`
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// New creates a Fiber app serving the models in reg.
//
// Routes:
//   - GET  /healthz          liveness probe
//   - GET  /v1/models        registered model names
//   - POST /v1/completions   single completion
func New(reg registry.Registry, opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &handler{reg: reg, log: logger}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/v1/models", h.models)
	app.Post("/v1/completions", h.complete)

	return app
}

type handler struct {
	reg registry.Registry
	log logrus.FieldLogger
}

func (h *handler) models(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"models": h.reg.Names()})
}

func (h *handler) complete(c *fiber.Ctx) error {
	var req CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Model) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "model is required")
	}
	if req.Prompt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}

	res, err := ai.GenerateWithRegistry(c.UserContext(), h.reg, req.Model, ai.GenerateRequest{
		Preamble:         req.Preamble,
		ChatHistory:      req.History,
		Prompt:           req.Prompt,
		Documents:        req.Documents,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		Tools:            req.Tools,
		AdditionalParams: req.AdditionalParams,
	})
	if err != nil {
		h.log.WithError(err).WithField("model", req.Model).Warn("completion request failed")
		return err
	}

	out := CompletionResponse{Model: req.Model, Type: string(res.Choice.Kind)}
	if res.Choice.IsToolCall() {
		out.ToolCall = &ToolCall{Name: res.Choice.ToolName, Arguments: res.Choice.ToolArguments}
	} else {
		out.Text = res.Choice.Text
	}
	if raw, ok := res.RawResponse.(*deepseek.CompletionResponse); ok {
		out.Usage = raw.Usage
	}
	return c.JSON(out)
}

func (h *handler) handleError(c *fiber.Ctx, err error) error {
	status, body := errorStatus(err)
	return c.Status(status).JSON(body)
}

func errorStatus(err error) (int, ErrorResponse) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, ErrorResponse{Error: fe.Message}
	}

	var nsm *registry.NoSuchModelError
	if errors.As(err, &nsm) {
		return fiber.StatusNotFound, ErrorResponse{Error: err.Error()}
	}

	var ce *provider.CompletionError
	if errors.As(err, &ce) {
		return fiber.StatusBadGateway, ErrorResponse{Error: err.Error(), Kind: string(ce.Kind)}
	}

	return fiber.StatusInternalServerError, ErrorResponse{Error: err.Error()}
}
