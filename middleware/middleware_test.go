package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/completion-sdk/provider"
)

type MockCompletionModel struct {
	mock.Mock
}

func (m *MockCompletionModel) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CompletionResponse), args.Error(1)
}

func messageResponse(text string) *provider.CompletionResponse {
	return &provider.CompletionResponse{Choice: provider.MessageChoice(text)}
}

func TestWrapCompletionModel_Order(t *testing.T) {
	var order []string
	tag := func(name string) CompletionModelMiddleware {
		return func(next provider.CompletionModel) provider.CompletionModel {
			return completionFunc(func(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
				order = append(order, name)
				return next.Completion(ctx, req)
			})
		}
	}

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(messageResponse("ok"), nil)

	wrapped := WrapCompletionModel(base, tag("outer"), nil, tag("inner"))
	_, err := wrapped.Completion(context.Background(), &provider.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	base.AssertExpectations(t)
}

type completionFunc func(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error)

func (f completionFunc) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return f(ctx, req)
}

func TestLoggingCompletionModel_Success(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).
		Return(&provider.CompletionResponse{Choice: provider.ToolCallChoice("lookup", json.RawMessage(`{}`))}, nil)

	model := LoggingCompletionModel(LoggingOptions{
		Logger:      logger,
		Model:       "deepseek-chat",
		LogRequest:  true,
		LogResponse: true,
		LogDuration: true,
	})(base)

	_, err := model.Completion(context.Background(), &provider.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "deepseek-chat", entries[0].Data["model"])

	last := hook.LastEntry()
	assert.Equal(t, "completion success", last.Message)
	assert.Equal(t, "tool_call", last.Data["choice"])
	assert.Equal(t, "lookup", last.Data["tool"])
	assert.Contains(t, last.Data, "duration")
}

func TestLoggingCompletionModel_ErrorWithDefaults(t *testing.T) {
	logger, hook := test.NewNullLogger()

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(nil, provider.NewProviderError("boom"))

	model := LoggingCompletionModel(LoggingOptions{Logger: logger})(base)

	_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
	require.Error(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "completion failed", last.Message)
	assert.ErrorIs(t, last.Data[logrus.ErrorKey].(error), provider.ErrProvider)
}

func TestTelemetryCompletionModel(t *testing.T) {
	var calls []CompletionCallInfo
	hooks := TelemetryHooks{OnCompletionCall: func(_ context.Context, info CompletionCallInfo) {
		calls = append(calls, info)
	}}

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(messageResponse("ok"), nil).Once()
	base.On("Completion", mock.Anything, mock.Anything).Return(nil, provider.NewResponseError("no choices")).Once()

	model := TelemetryCompletionModel(hooks)(base)
	_, _ = model.Completion(context.Background(), &provider.CompletionRequest{})
	_, _ = model.Completion(context.Background(), &provider.CompletionRequest{})

	require.Len(t, calls, 2)
	assert.Equal(t, provider.ChoiceMessage, calls[0].Choice)
	assert.NoError(t, calls[0].Err)
	assert.False(t, calls[0].EndTime.Before(calls[0].StartTime))
	assert.Empty(t, calls[1].Choice)
	assert.True(t, provider.IsResponseError(calls[1].Err))
}

func TestCircuitBreaker_OpensOnProviderErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(nil, provider.NewProviderError("upstream down"))

	model := CircuitBreakerCompletionModel(CircuitBreakerOptions{
		Name:             "deepseek-chat",
		FailureThreshold: 2,
		Timeout:          time.Minute,
		Logger:           logger,
	})(base)

	for i := 0; i < 2; i++ {
		_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream down")
	}

	_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, provider.IsProviderError(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), `circuit breaker "deepseek-chat" is open`)

	base.AssertNumberOfCalls(t, "Completion", 2)

	var changed bool
	for _, e := range hook.AllEntries() {
		if e.Message == "circuit breaker state changed" {
			changed = true
			assert.Equal(t, "open", e.Data["to_state"])
		}
	}
	assert.True(t, changed)
}

func TestCircuitBreaker_ResponseErrorsDoNotTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()

	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(nil, provider.NewResponseError("no choices"))

	model := CircuitBreakerCompletionModel(CircuitBreakerOptions{
		Name:             "deepseek-chat",
		FailureThreshold: 1,
		Logger:           logger,
	})(base)

	for i := 0; i < 3; i++ {
		_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
		assert.True(t, provider.IsResponseError(err))
	}
	base.AssertNumberOfCalls(t, "Completion", 3)
}

func TestCircuitBreaker_CancelledContextDoesNotTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()

	cancelled := &provider.CompletionError{Kind: provider.ErrorKindProvider, Message: "request failed", Err: context.Canceled}
	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(nil, cancelled)

	model := CircuitBreakerCompletionModel(CircuitBreakerOptions{FailureThreshold: 1, Logger: logger})(base)

	for i := 0; i < 2; i++ {
		_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
		assert.True(t, errors.Is(err, context.Canceled))
	}
	base.AssertNumberOfCalls(t, "Completion", 2)
}

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	base := &MockCompletionModel{}
	base.On("Completion", mock.Anything, mock.Anything).Return(messageResponse("hello"), nil)

	model := CircuitBreakerCompletionModel(CircuitBreakerOptions{})(base)
	res, err := model.Completion(context.Background(), &provider.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Choice.Text)
}

func TestDefaultCircuitBreakerOptions(t *testing.T) {
	opts := CircuitBreakerOptions{}.withDefaults()
	assert.Equal(t, uint32(5), opts.FailureThreshold)
	assert.Equal(t, 60*time.Second, opts.Timeout)
	assert.Equal(t, uint32(1), opts.MaxRequests)
	assert.NotNil(t, opts.Logger)
}

func TestCircuitBreaker_CallerErrorsDoNotTrip(t *testing.T) {
	for _, status := range []int{400, 404, 422} {
		logger, _ := test.NewNullLogger()

		base := &MockCompletionModel{}
		base.On("Completion", mock.Anything, mock.Anything).
			Return(nil, &provider.CompletionError{Kind: provider.ErrorKindProvider, Message: "invalid params", StatusCode: status}).Times(5)
		base.On("Completion", mock.Anything, mock.Anything).Return(messageResponse("ok"), nil).Once()

		model := CircuitBreakerCompletionModel(CircuitBreakerOptions{Name: "chat", Logger: logger})(base)

		for i := 0; i < 5; i++ {
			_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
			require.Error(t, err)
			assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
		}

		res, err := model.Completion(context.Background(), &provider.CompletionRequest{})
		require.NoError(t, err, "status %d", status)
		assert.Equal(t, "ok", res.Choice.Text)
		base.AssertNumberOfCalls(t, "Completion", 6)
	}
}

func TestCircuitBreaker_VendorStatusesTrip(t *testing.T) {
	for _, status := range []int{401, 402, 429, 500, 503} {
		logger, _ := test.NewNullLogger()

		base := &MockCompletionModel{}
		base.On("Completion", mock.Anything, mock.Anything).
			Return(nil, &provider.CompletionError{Kind: provider.ErrorKindProvider, StatusCode: status})

		model := CircuitBreakerCompletionModel(CircuitBreakerOptions{Name: "chat", FailureThreshold: 2, Logger: logger})(base)

		for i := 0; i < 2; i++ {
			_, _ = model.Completion(context.Background(), &provider.CompletionRequest{})
		}
		_, err := model.Completion(context.Background(), &provider.CompletionRequest{})
		assert.ErrorIs(t, err, gobreaker.ErrOpenState, "status %d", status)
		base.AssertNumberOfCalls(t, "Completion", 2)
	}
}
