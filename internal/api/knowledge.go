package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/brainbuddy/internal/training"
)

// ListKnowledge returns knowledge entries matching the query filters.
func (h *Handler) ListKnowledge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := training.KnowledgeOptions{
		StimulusType: q.Get("stimulus_type"),
		Outcome:      q.Get("outcome"),
	}
	if raw := q.Get("min_evidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.fail(w, r, training.NewValidationError("min_evidence", raw, "must be a number"))
			return
		}
		opts.MinEvidence = &v
	}
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q.Has("limit") && limit == 0 {
		h.fail(w, r, training.NewValidationError("limit", 0, "must be between 1 and 100"))
		return
	}
	opts.Limit = limit
	entries, err := h.svc.ListKnowledge(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetKnowledge returns one entry.
func (h *Handler) GetKnowledge(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.GetKnowledge(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Recommendations lists the research relevant to a training module.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations(r.Context(), mux.Vars(r)["module"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
