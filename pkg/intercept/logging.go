package intercept

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/taskner/marketplace/pkg/intercept"

// LoggingOptions tunes what the logging interceptor records.
type LoggingOptions struct {
	// SensitiveFields lists argument/result field names replaced with
	// MaskToken in log output, recursively through nested values.
	SensitiveFields []string
	// LogArgs and LogResult control payload logging; identity, timing and
	// outcome are always recorded.
	LogArgs   bool
	LogResult bool
}

// Logging emits a start event on entry, a completed event with elapsed
// wall-clock time on success, and an error event plus an error-reporter
// capture on failure, then returns the failure unchanged. An OpenTelemetry
// span covers the whole call.
func Logging(logger zerolog.Logger, reporter Reporter, op Identity, opts LoggingOptions) Interceptor {
	return func(next Handler) Handler {
		return func(ctx context.Context, args []any) (any, error) {
			ctx, span := otel.Tracer(tracerName).Start(ctx, op.String())
			defer span.End()

			evt := logger.Debug().Str("op", op.String())
			if opts.LogArgs {
				evt = evt.Interface("args", redact(args, opts.SensitiveFields))
			}
			evt.Msg("operation started")

			start := time.Now()
			result, err := next(ctx, args)
			elapsed := time.Since(start)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				logger.Error().
					Str("op", op.String()).
					Dur("elapsed", elapsed).
					Err(err).
					Msg("operation failed")
				if reporter != nil {
					reporter.Capture(ctx, err, map[string]string{
						"component": op.Component,
						"method":    op.Method,
					})
				}
				return nil, err
			}

			done := logger.Info().Str("op", op.String()).Dur("elapsed", elapsed)
			if opts.LogResult {
				done = done.Interface("result", redact(result, opts.SensitiveFields))
			}
			done.Msg("operation completed")
			return result, nil
		}
	}
}
