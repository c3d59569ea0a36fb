package providerutil

import (
	"io"
	"net/http"
	"time"

	"github.com/ncecere/completion-sdk/provider"
)

// MaxErrorBodySize caps how much of a non-2xx body is kept as the
// error message.
const MaxErrorBodySize = 1 << 20

// ReadBody reads the full response body and closes it.
//
// If the response status code is not in the 2xx range, ReadBody
// returns a *provider.CompletionError of kind ErrorKindProvider whose
// Message is the raw body text, truncated to MaxErrorBodySize, or the
// empty string when the body cannot be read.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, err := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		if err != nil {
			b = nil
		}
		return nil, &provider.CompletionError{
			Kind:       provider.ErrorKindProvider,
			Message:    string(b),
			StatusCode: resp.StatusCode,
		}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.CompletionError{
			Kind:    provider.ErrorKindResponse,
			Message: "reading response body: " + err.Error(),
			Err:     err,
		}
	}
	return b, nil
}

// DefaultHTTPClient returns the default HTTP client used when none is provided.
func DefaultHTTPClient() *http.Client {
	return http.DefaultClient
}

// WithHTTPTimeout returns an HTTP client with the given overall timeout.
func WithHTTPTimeout(d time.Duration) provider.HTTPClient {
	return &http.Client{Timeout: d}
}
