package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ncecere/completion-sdk/provider"
)

// CircuitBreakerOptions configures CircuitBreakerCompletionModel.
type CircuitBreakerOptions struct {
	// Name identifies the breaker in logs and errors, usually the model name.
	Name string
	// FailureThreshold is the number of consecutive provider failures
	// that opens the circuit. Defaults to 5.
	FailureThreshold uint32
	// Timeout is how long the circuit stays open before a trial call
	// is let through. Defaults to 60s.
	Timeout time.Duration
	// MaxRequests is the number of trial calls allowed while half-open.
	// Defaults to 1.
	MaxRequests uint32
	// Logger receives state transitions. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultCircuitBreakerOptions returns the defaults applied to zero fields.
func DefaultCircuitBreakerOptions() CircuitBreakerOptions {
	return CircuitBreakerOptions{
		FailureThreshold: 5,
		Timeout:          60 * time.Second,
		MaxRequests:      1,
	}
}

func (o CircuitBreakerOptions) withDefaults() CircuitBreakerOptions {
	d := DefaultCircuitBreakerOptions()
	if o.FailureThreshold == 0 {
		o.FailureThreshold = d.FailureThreshold
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.MaxRequests == 0 {
		o.MaxRequests = d.MaxRequests
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// CircuitBreakerCompletionModel returns a middleware that fails fast once
// the wrapped model keeps reporting provider errors. Each wrapped model
// gets its own breaker.
//
// Only provider errors count as failures. Response errors mean the
// vendor answered, while a cancelled context or a 400, 404 or 422 reply
// is the caller's doing, so none of them trip the breaker. Auth, quota,
// rate-limit, 5xx and transport failures do. While the circuit is open,
// calls return a provider *CompletionError without reaching the model.
// Calls are never retried.
func CircuitBreakerCompletionModel(opts CircuitBreakerOptions) CompletionModelMiddleware {
	opts = opts.withDefaults()

	return func(next provider.CompletionModel) provider.CompletionModel {
		log := opts.Logger.WithField("breaker", opts.Name)
		settings := gobreaker.Settings{
			Name:        opts.Name,
			MaxRequests: opts.MaxRequests,
			Timeout:     opts.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"from_state": from.String(),
					"to_state":   to.String(),
				}).Warn("circuit breaker state changed")
			},
			IsSuccessful: countsAsSuccess,
		}

		return &circuitBreakerCompletionModel{
			next:    next,
			name:    opts.Name,
			breaker: gobreaker.NewCircuitBreaker(settings),
			log:     log,
		}
	}
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if provider.IsResponseError(err) {
		return true
	}
	var ce *provider.CompletionError
	if errors.As(err, &ce) && isCallerStatus(ce.StatusCode) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// isCallerStatus reports statuses caused by the request itself rather
// than by vendor health.
func isCallerStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

type circuitBreakerCompletionModel struct {
	next    provider.CompletionModel
	name    string
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

func (c *circuitBreakerCompletionModel) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.next.Completion(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.WithField("state", c.breaker.State().String()).Warn("circuit breaker rejecting completion")
			return nil, &provider.CompletionError{
				Kind:    provider.ErrorKindProvider,
				Message: fmt.Sprintf("circuit breaker %q is open", c.name),
				Err:     err,
			}
		}
		return nil, err
	}

	res, _ := result.(*provider.CompletionResponse)
	return res, nil
}
