package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/metrics"
)

// requestContext attaches a run id to the request context, reusing chi's
// request-id middleware value when present so log lines and the
// X-Request-Id header correlate with the envelope's request_id.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := chimiddleware.GetReqID(r.Context())
		if runID == "" {
			runID = logging.GenerateRunID()
		}
		ctx := logging.ContextWithRunID(r.Context(), runID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogging records method, path, status, and duration for every
// request once the handler has finished.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Msg("request handled")
	})
}

// requestMetrics observes each request's duration into QueryDuration,
// labeled by the matched chi route pattern (e.g. "/schedules/{id}/trends")
// rather than the raw path, to keep the label cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}
		metrics.QueryDuration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
	})
}
