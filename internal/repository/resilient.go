package repository

import (
	"context"
	"math"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/metrics"
	"github.com/obsforge/obsforge/internal/models"
)

// Resilient wraps any Repository with bounded exponential-backoff retries
// and a circuit breaker, so ingest/analytics/query never have to know which
// backend they're talking to or that it can fail transiently.
type Resilient struct {
	delegate Repository
	cfg      config.ResilienceConfig
	breaker  *gobreaker.CircuitBreaker[any]
}

// NewResilient wraps delegate using cfg's retry and breaker settings.
func NewResilient(delegate Repository, cfg config.ResilienceConfig) *Resilient {
	settings := gobreaker.Settings{
		Name:        "repository",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureCount
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.Set(breakerStateValue(to))
			logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("repository circuit breaker state changed")
		},
	}
	return &Resilient{delegate: delegate, cfg: cfg, breaker: gobreaker.NewCircuitBreaker[any](settings)}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

var _ Repository = (*Resilient)(nil)

// isRetryable reports whether err represents a transient backend failure
// worth retrying, as opposed to a domain error (not found, duplicate, bad
// input) that would fail identically on every attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	_, isDomainError := apierr.KindOf(err)
	return !isDomainError
}

func backoff(cfg config.ResilienceConfig, attempt int) time.Duration {
	d := cfg.BaseBackoff * time.Duration(math.Pow(2, float64(attempt)))
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	return d
}

// call runs fn through the circuit breaker with bounded exponential-backoff
// retries. A domain error (apierr.Error) is never retried, since it is not
// a transient failure. Retry exhaustion is surfaced as
// apierr.KindRepositoryUnavailable.
func call[T any](ctx context.Context, r *Resilient, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	maxAttempts := r.cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RepositoryRetriesTotal.WithLabelValues(operation).Inc()
			select {
			case <-time.After(backoff(r.cfg, attempt-1)):
			case <-ctx.Done():
				return zero, apierr.Wrap(apierr.KindCancelled, "repository call cancelled while backing off", ctx.Err())
			}
		}

		result, err := r.breaker.Execute(func() (any, error) {
			return fn(ctx)
		})
		if err == nil {
			return result.(T), nil
		}
		lastErr = err
		if !isRetryable(err) {
			return zero, err
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}
	}

	return zero, apierr.Wrap(apierr.KindRepositoryUnavailable, "repository unavailable after retries", lastErr)
}

func (r *Resilient) IngestSchedule(ctx context.Context, in IngestInput) (IngestOutput, error) {
	return call(ctx, r, "ingest_schedule", func(ctx context.Context) (IngestOutput, error) {
		return r.delegate.IngestSchedule(ctx, in)
	})
}

func (r *Resilient) GetSchedule(ctx context.Context, scheduleID int64) (models.Schedule, error) {
	return call(ctx, r, "get_schedule", func(ctx context.Context) (models.Schedule, error) {
		return r.delegate.GetSchedule(ctx, scheduleID)
	})
}

func (r *Resilient) GetScheduleByChecksum(ctx context.Context, checksum string) (models.Schedule, bool, error) {
	type result struct {
		schedule models.Schedule
		found    bool
	}
	res, err := call(ctx, r, "get_schedule_by_checksum", func(ctx context.Context) (result, error) {
		s, found, err := r.delegate.GetScheduleByChecksum(ctx, checksum)
		return result{schedule: s, found: found}, err
	})
	return res.schedule, res.found, err
}

func (r *Resilient) ListSchedules(ctx context.Context) ([]ScheduleListItem, error) {
	return call(ctx, r, "list_schedules", func(ctx context.Context) ([]ScheduleListItem, error) {
		return r.delegate.ListSchedules(ctx)
	})
}

func (r *Resilient) DeleteSchedule(ctx context.Context, scheduleID int64) error {
	_, err := call(ctx, r, "delete_schedule", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.delegate.DeleteSchedule(ctx, scheduleID)
	})
	return err
}

func (r *Resilient) ListBlockDetails(ctx context.Context, scheduleID int64) ([]BlockDetail, error) {
	return call(ctx, r, "list_block_details", func(ctx context.Context) ([]BlockDetail, error) {
		return r.delegate.ListBlockDetails(ctx, scheduleID)
	})
}

func (r *Resilient) GetDarkPeriods(ctx context.Context, scheduleID int64) ([]models.Period, error) {
	return call(ctx, r, "get_dark_periods", func(ctx context.Context) ([]models.Period, error) {
		return r.delegate.GetDarkPeriods(ctx, scheduleID)
	})
}

func (r *Resilient) ReplaceAnalytics(ctx context.Context, scheduleID int64, proj AnalyticsProjection, validation []models.ValidationResult) error {
	_, err := call(ctx, r, "replace_analytics", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.delegate.ReplaceAnalytics(ctx, scheduleID, proj, validation)
	})
	return err
}

func (r *Resilient) GetAnalytics(ctx context.Context, scheduleID int64) (AnalyticsProjection, error) {
	return call(ctx, r, "get_analytics", func(ctx context.Context) (AnalyticsProjection, error) {
		return r.delegate.GetAnalytics(ctx, scheduleID)
	})
}

func (r *Resilient) GetValidationResults(ctx context.Context, scheduleID int64) ([]models.ValidationResult, error) {
	return call(ctx, r, "get_validation_results", func(ctx context.Context) ([]models.ValidationResult, error) {
		return r.delegate.GetValidationResults(ctx, scheduleID)
	})
}
