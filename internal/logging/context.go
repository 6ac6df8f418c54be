package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	scheduleIDKey contextKey = "schedule_id"
	loggerKey     contextKey = "logger"
)

// GenerateRunID creates a new unique identifier for one ingestion, ETL, or
// query-engine invocation, used to correlate the log lines it emits.
func GenerateRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID attaches a run ID to ctx.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithNewRunID attaches a freshly generated run ID to ctx.
func ContextWithNewRunID(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, GenerateRunID())
}

// RunIDFromContext retrieves the run ID, or "" if none was attached.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithScheduleID attaches the schedule id a run is operating on.
func ContextWithScheduleID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, scheduleIDKey, id)
}

// ScheduleIDFromContext retrieves the schedule id, or (0, false).
func ScheduleIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(scheduleIDKey).(int64)
	return id, ok
}

// ContextWithLogger stores a pre-configured logger in ctx.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the logger stored in ctx, enriched with run_id/schedule_id if
// present, falling back to the global logger with the same enrichment.
func Ctx(ctx context.Context) zerolog.Logger {
	var base zerolog.Logger
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		base = logger
	} else {
		base = Logger()
	}

	withCtx := base.With()
	if runID := RunIDFromContext(ctx); runID != "" {
		withCtx = withCtx.Str("run_id", runID)
	}
	if scheduleID, ok := ScheduleIDFromContext(ctx); ok {
		withCtx = withCtx.Int64("schedule_id", scheduleID)
	}
	return withCtx.Logger()
}
