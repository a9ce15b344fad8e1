package api

import (
	"encoding/json"
	"net/http"

	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

// StartExperimentRequest is the body of POST /experiments.
type StartExperimentRequest struct {
	UserID         string `json:"user_id"`
	ExperimentType string `json:"experiment_type"`
}

// ExperimentTypes lists the experiments that can be started.
func (h *Handler) ExperimentTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ExperimentTypes)
}

// ListExperiments returns a user's experiments, newest first.
func (h *Handler) ListExperiments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q.Has("limit") && limit == 0 {
		h.fail(w, r, training.NewValidationError("limit", 0, "must be between 1 and 100"))
		return
	}
	experiments, err := h.svc.ListExperiments(r.Context(), q.Get("user_id"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experiments)
}

// StartExperiment begins an experiment from a JSON body.
func (h *Handler) StartExperiment(w http.ResponseWriter, r *http.Request) {
	var req StartExperimentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	exp, err := h.svc.StartExperiment(r.Context(), req.UserID, req.ExperimentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// CompleteExperiment marks an experiment completed.
func (h *Handler) CompleteExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	exp, err := h.svc.CompleteExperiment(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
