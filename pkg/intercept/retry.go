package intercept

import (
	"context"
	"math"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// RetryPolicy drives the retry interceptor. MaxAttempts counts the initial
// attempt; it is never exceeded. ShouldRetry gates which failures are worth
// retrying; nil retries everything.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	Backoff     Backoff
	Multiplier  float64
	ShouldRetry func(err error) bool
	// OnRetry is invoked after each failed attempt that will be retried,
	// with the 1-based number of that attempt.
	OnRetry func(attempt uint, err error)
}

// delay computes the pause after `failed` failed attempts (1-based):
// fixed keeps BaseDelay, linear grows by Multiplier per prior failure,
// exponential multiplies by Multiplier each failure.
func (p RetryPolicy) delay(failed uint) time.Duration {
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	switch p.Backoff {
	case BackoffLinear:
		return time.Duration(float64(p.BaseDelay) * mult * float64(failed-1))
	case BackoffExponential:
		return time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(failed-1)))
	default:
		return p.BaseDelay
	}
}

// Retry invokes the wrapped handler up to MaxAttempts times, sleeping per
// the backoff policy between attempts. Sleeps block only the calling
// goroutine and honor ctx cancellation. Non-retryable failures and
// exhaustion return the last error unchanged.
func Retry(policy RetryPolicy, logger zerolog.Logger) Interceptor {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, args []any) (any, error) {
			var tried uint
			result, err := retry.DoWithData(
				func() (any, error) {
					tried++
					return next(ctx, args)
				},
				retry.Context(ctx),
				retry.Attempts(attempts),
				retry.LastErrorOnly(true),
				retry.RetryIf(func(err error) bool {
					return policy.ShouldRetry == nil || policy.ShouldRetry(err)
				}),
				retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
					return policy.delay(n + 1)
				}),
				retry.OnRetry(func(n uint, err error) {
					logger.Warn().
						Uint("attempt", n+1).
						Uint("max_attempts", attempts).
						Err(err).
						Msg("attempt failed, retrying")
					if policy.OnRetry != nil {
						policy.OnRetry(n+1, err)
					}
				}),
			)
			if err != nil {
				logger.Error().Uint("attempts", tried).Err(err).Msg("retries exhausted")
				return nil, err
			}
			if tried > 1 {
				logger.Info().Uint("attempts", tried).Msg("succeeded after retries")
			}
			return result, nil
		}
	}
}
