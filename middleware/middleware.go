package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ncecere/completion-sdk/provider"
)

// CompletionModelMiddleware wraps a provider.CompletionModel with
// additional behavior such as logging, telemetry, or a circuit breaker.
type CompletionModelMiddleware func(provider.CompletionModel) provider.CompletionModel

// WrapCompletionModel applies the provided middlewares around the base
// model. Middlewares are applied in the order provided, so the first
// middleware becomes the outermost wrapper.
func WrapCompletionModel(base provider.CompletionModel, mws ...CompletionModelMiddleware) provider.CompletionModel {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// LoggingOptions controls which aspects of a completion call are logged
// by the logging middleware.
type LoggingOptions struct {
	// Logger is the destination for log output. If nil,
	// logrus.StandardLogger() is used.
	Logger logrus.FieldLogger
	// Model is attached to every entry as the "model" field.
	Model string
	// LogRequest logs the start of each call at debug level.
	LogRequest bool
	// LogResponse logs the kind of each successful choice.
	LogResponse bool
	// LogErrors logs failed calls at error level.
	LogErrors bool
	// LogDuration attaches the call duration to completion entries.
	LogDuration bool
}

func defaultLoggingOptions(opts LoggingOptions) LoggingOptions {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if !opts.LogRequest && !opts.LogResponse && !opts.LogErrors && !opts.LogDuration {
		opts.LogRequest = true
		opts.LogErrors = true
		opts.LogDuration = true
	}
	return opts
}

// LoggingCompletionModel returns a middleware that logs Completion
// calls. Entries carry metadata only (model, choice kind, tool name,
// duration, error); prompts and replies are never logged.
func LoggingCompletionModel(opts LoggingOptions) CompletionModelMiddleware {
	opts = defaultLoggingOptions(opts)

	return func(next provider.CompletionModel) provider.CompletionModel {
		return &loggingCompletionModel{
			next: next,
			opts: opts,
		}
	}
}

type loggingCompletionModel struct {
	next provider.CompletionModel
	opts LoggingOptions
}

func (l *loggingCompletionModel) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	log := l.opts.Logger.WithField("model", l.opts.Model)

	start := time.Now()
	if l.opts.LogRequest {
		log.Debug("completion start")
	}

	res, err := l.next.Completion(ctx, req)
	dur := time.Since(start)
	if l.opts.LogDuration {
		log = log.WithField("duration", dur)
	}

	if err != nil {
		if l.opts.LogErrors {
			log.WithError(err).Error("completion failed")
		}
		return nil, err
	}

	switch {
	case l.opts.LogResponse:
		fields := logrus.Fields{"choice": string(res.Choice.Kind)}
		if res.Choice.IsToolCall() {
			fields["tool"] = res.Choice.ToolName
		}
		log.WithFields(fields).Info("completion success")
	case l.opts.LogDuration:
		log.Info("completion done")
	}

	return res, nil
}

// CompletionCallInfo contains high-level metadata about a completion
// call that can be used for metrics or tracing.
type CompletionCallInfo struct {
	StartTime time.Time
	EndTime   time.Time
	// Choice is the kind of the resolved choice; empty on error.
	Choice provider.ChoiceKind
	Err    error
}

// TelemetryHooks defines callbacks that are invoked around completion
// calls so callers can feed metrics or tracing systems without this
// package depending on them.
type TelemetryHooks struct {
	OnCompletionCall func(ctx context.Context, info CompletionCallInfo)
}

// TelemetryCompletionModel returns a middleware that invokes the
// provided hooks after every Completion call.
func TelemetryCompletionModel(hooks TelemetryHooks) CompletionModelMiddleware {
	return func(next provider.CompletionModel) provider.CompletionModel {
		return &telemetryCompletionModel{
			next:  next,
			hooks: hooks,
		}
	}
}

type telemetryCompletionModel struct {
	next  provider.CompletionModel
	hooks TelemetryHooks
}

func (t *telemetryCompletionModel) Completion(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	start := time.Now()
	res, err := t.next.Completion(ctx, req)
	if t.hooks.OnCompletionCall != nil {
		info := CompletionCallInfo{
			StartTime: start,
			EndTime:   time.Now(),
			Err:       err,
		}
		if err == nil && res != nil {
			info.Choice = res.Choice.Kind
		}
		t.hooks.OnCompletionCall(ctx, info)
	}
	return res, err
}
