// Package deepseek implements provider.CompletionModel for the DeepSeek
// chat completions API.
//
// Example:
//
//	client, err := deepseek.NewClient(deepseek.Options{})
//	if err != nil {
//	    return err
//	}
//	model := client.CompletionModel(deepseek.DeepSeekChat)
package deepseek

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ncecere/completion-sdk/provider"
	"github.com/ncecere/completion-sdk/providerutil"
)

const (
	// DefaultBaseURL is the public DeepSeek API endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	// DeepSeekChat is the general chat model.
	DeepSeekChat = "deepseek-chat"
	// DeepSeekCoder is the code-oriented model.
	DeepSeekCoder = "deepseek-coder"

	// BetaHeader carries the comma-joined list of enabled beta features.
	BetaHeader = "x-deepseek-beta"
)

// Options configures a Client. The zero value reads everything from
// the environment.
type Options struct {
	provider.ClientOptions

	// Betas enables opt-in API features. Each entry is sent in the
	// BetaHeader, joined with commas.
	Betas []string

	// Logger receives request diagnostics. Defaults to the logrus
	// standard logger.
	Logger logrus.FieldLogger
}

// Client holds the immutable configuration shared by every model it
// creates. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient provider.HTTPClient
	headers    http.Header
	logger     logrus.FieldLogger
}

// NewClient validates opts and creates a new DeepSeek client.
//
// Environment variables:
//   - DEEPSEEK_API_KEY  (required if opts.APIKey is empty)
//   - DEEPSEEK_BASE_URL (optional, defaults to https://api.deepseek.com)
func NewClient(opts Options) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek: missing API key; set Options.APIKey or DEEPSEEK_API_KEY")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("DEEPSEEK_BASE_URL")
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("deepseek: invalid base URL %q", baseURL)
	}

	headers := make(http.Header)
	for k, vs := range opts.Headers {
		for _, v := range vs {
			if v == "" {
				continue
			}
			headers.Add(k, v)
		}
	}
	if len(opts.Betas) > 0 {
		for _, b := range opts.Betas {
			if b == "" || strings.Contains(b, ",") {
				return nil, fmt.Errorf("deepseek: invalid beta flag %q", b)
			}
		}
		headers.Set(BetaHeader, strings.Join(opts.Betas, ","))
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = providerutil.DefaultHTTPClient()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: hc,
		headers:    headers,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CompletionModel returns a CompletionModel for the given model name.
// The name is forwarded verbatim; it is not validated.
func (c *Client) CompletionModel(model string) provider.CompletionModel {
	return &completionModel{client: c, model: model}
}

func (c *Client) chatCompletionsURL() string {
	return c.baseURL + "/chat/completions"
}

// newRequestHeaders attaches custom headers first, then enforces the
// required ones.
func (c *Client) newRequestHeaders() http.Header {
	h := c.headers.Clone()
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set("Content-Type", "application/json")
	return h
}
