package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/obsforge/obsforge/internal/analytics"
	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/ingest"
	"github.com/obsforge/obsforge/internal/logging"
	"github.com/obsforge/obsforge/internal/repository"
)

type handlers struct {
	repo repository.Repository
	cfg  *config.Config
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	newResponder(w, r).ok(map[string]string{"status": "ok", "version": version})
}

func (h *handlers) listSchedules(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	items, err := h.repo.ListSchedules(r.Context())
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(map[string]interface{}{"schedules": items, "total": len(items)})
}

func (h *handlers) ingestSchedule(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)

	raw, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		rw.fail(apierr.Wrap(apierr.KindInvalidDocument, "failed to read request body", err))
		return
	}

	out, err := ingest.Ingest(r.Context(), h.repo, raw, h.cfg.Scheduler)
	if err != nil {
		rw.fail(err)
		return
	}

	if err := analytics.Run(r.Context(), h.repo, out.ScheduleID, h.cfg.Analytics, h.cfg.Validator); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("schedule_id", out.ScheduleID).Msg("analytics ETL failed after ingest")
		rw.fail(err)
		return
	}

	rw.created(map[string]interface{}{"schedule_id": out.ScheduleID, "checksum": out.Checksum})
}

// scheduleID extracts the {id} URL parameter, failing with
// InvalidParameters if it is not a positive integer.
func scheduleID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.New(apierr.KindInvalidParameters, param+" must be a positive integer")
	}
	return id, nil
}
