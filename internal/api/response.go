// Package api is the thin HTTP binding that routes the read endpoints to
// internal/query and the write endpoint to internal/ingest. It carries no
// scheduling or analytics logic of its own.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/logging"
)

// envelope is the standardized response wrapper for every endpoint.
type envelope struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *envelopeErr `json:"error,omitempty"`
	Meta    meta         `json:"meta"`
}

type envelopeErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

type responder struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func newResponder(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, start: time.Now()}
}

func (rw *responder) ok(data interface{}) {
	rw.write(http.StatusOK, envelope{Success: true, Data: data, Meta: rw.meta()})
}

func (rw *responder) created(data interface{}) {
	rw.write(http.StatusCreated, envelope{Success: true, Data: data, Meta: rw.meta()})
}

// fail translates err's apierr.Kind into an HTTP status and writes the error
// envelope. Errors that do not carry a Kind are treated as internal.
func (rw *responder) fail(err error) {
	kind, ok := apierr.KindOf(err)
	if !ok {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("unclassified error reached the HTTP binding")
		rw.write(http.StatusInternalServerError, envelope{
			Success: false,
			Error:   &envelopeErr{Code: "INTERNAL_ERROR", Message: "internal error"},
			Meta:    rw.meta(),
		})
		return
	}

	status := statusForKind(kind)
	rw.write(status, envelope{
		Success: false,
		Error:   &envelopeErr{Code: string(kind), Message: err.Error()},
		Meta:    rw.meta(),
	})
}

func statusForKind(kind apierr.Kind) int {
	switch kind {
	case apierr.KindScheduleNotFound, apierr.KindBlockNotFound:
		return http.StatusNotFound
	case apierr.KindInvalidParameters, apierr.KindAmbiguousBinningRequest,
		apierr.KindInvalidDocument, apierr.KindInvalidCoordinate,
		apierr.KindInvalidRange, apierr.KindMissingRequiredField:
		return http.StatusBadRequest
	case apierr.KindDuplicateSchedule:
		return http.StatusConflict
	case apierr.KindRepositoryUnavailable:
		return http.StatusServiceUnavailable
	case apierr.KindCancelled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (rw *responder) meta() meta {
	return meta{
		RequestID:  logging.RunIDFromContext(rw.r.Context()),
		Timestamp:  time.Now(),
		DurationMs: time.Since(rw.start).Milliseconds(),
	}
}

func (rw *responder) write(status int, body envelope) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
