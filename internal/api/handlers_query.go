package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/obsforge/obsforge/internal/apierr"
	"github.com/obsforge/obsforge/internal/query"
)

func (h *handlers) skyMap(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.SkyMap(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) distributions(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.Distributions(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) timeline(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.Timeline(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) insights(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.Insights(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) trends(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}

	var opts query.TrendsOptions
	if raw := r.URL.Query().Get("bandwidth"); raw != "" {
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			rw.fail(apierr.New(apierr.KindInvalidParameters, "bandwidth must be a number"))
			return
		}
		opts.Bandwidth = &v
	}
	if raw := r.URL.Query().Get("points"); raw != "" {
		v, perr := strconv.Atoi(raw)
		if perr != nil {
			rw.fail(apierr.New(apierr.KindInvalidParameters, "points must be an integer"))
			return
		}
		opts.Points = &v
	}

	res, err := query.Trends(r.Context(), h.repo, id, opts)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) validationReport(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.ValidationReport(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) compare(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	otherID, err := scheduleID(r, "other")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.Compare(r.Context(), h.repo, id, otherID)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) visibilityMap(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}
	res, err := query.VisibilityMap(r.Context(), h.repo, id)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func (h *handlers) visibilityHistogram(w http.ResponseWriter, r *http.Request) {
	rw := newResponder(w, r)
	id, err := scheduleID(r, "id")
	if err != nil {
		rw.fail(err)
		return
	}

	opts, err := parseHistogramOptions(r)
	if err != nil {
		rw.fail(err)
		return
	}

	res, err := query.VisibilityHistogram(r.Context(), h.repo, id, opts)
	if err != nil {
		rw.fail(err)
		return
	}
	rw.ok(res)
}

func parseHistogramOptions(r *http.Request) (query.HistogramOptions, error) {
	q := r.URL.Query()
	var opts query.HistogramOptions

	if raw := q.Get("num_bins"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apierr.New(apierr.KindInvalidParameters, "num_bins must be an integer")
		}
		opts.NumBins = &v
	}
	if raw := q.Get("bin_duration_minutes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apierr.New(apierr.KindInvalidParameters, "bin_duration_minutes must be an integer")
		}
		opts.BinDurationMinutes = &v
	}
	if raw := q.Get("priority_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, apierr.New(apierr.KindInvalidParameters, "priority_min must be a number")
		}
		opts.PriorityMin = &v
	}
	if raw := q.Get("priority_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, apierr.New(apierr.KindInvalidParameters, "priority_max must be a number")
		}
		opts.PriorityMax = &v
	}
	if raw := q.Get("block_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return opts, apierr.New(apierr.KindInvalidParameters, "block_ids must be a comma-separated list of integers")
			}
			opts.BlockIDs = append(opts.BlockIDs, v)
		}
	}

	return opts, nil
}
