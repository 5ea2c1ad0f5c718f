package observability

import (
	"context"

	"github.com/rs/zerolog"
)

// Reporter captures exceptions with contextual tags: a structured error
// event plus a per-component counter. It stands in for an external error
// tracker; delivery is the sink's concern.
type Reporter struct {
	logger  zerolog.Logger
	metrics *Metrics
}

func NewReporter(logger zerolog.Logger, metrics *Metrics) *Reporter {
	return &Reporter{logger: logger, metrics: metrics}
}

// Capture records err with its tags. Safe to call with a nil receiver so
// callers can treat reporting as strictly optional.
func (r *Reporter) Capture(_ context.Context, err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}

	evt := r.logger.Error().Err(err)
	for k, v := range tags {
		evt = evt.Str(k, v)
	}
	evt.Msg("captured exception")

	if r.metrics != nil {
		component := tags["component"]
		if component == "" {
			component = "unknown"
		}
		r.metrics.ErrorsCaptured.WithLabelValues(component).Inc()
	}
}
