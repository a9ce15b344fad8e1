package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/training"
)

// RatingRequest is the body form of a rating update.
type RatingRequest struct {
	Rating *int `json:"rating"`
}

// RatingResponse confirms a rating update.
type RatingResponse struct {
	Message   string `json:"message"`
	SessionID int64  `json:"session_id"`
	Rating    int    `json:"rating"`
}

func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, training.NewValidationError(name, raw, "must be an integer")
	}
	return v, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, training.NewValidationError("id", raw, "must be an integer")
	}
	return id, nil
}

// ListSessions returns sessions matching the query filters.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := training.ListOptions{
		UserID:          q.Get("user_id"),
		ModuleType:      q.Get("module_type"),
		BrainwaveTarget: q.Get("brainwave_target"),
	}
	var err error
	if opts.Days, err = queryInt(q, "days"); err != nil {
		h.fail(w, r, err)
		return
	}
	if opts.Limit, err = queryInt(q, "limit"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.Has("limit") && opts.Limit == 0 {
		h.fail(w, r, training.NewValidationError("limit", 0, "must be between 1 and 500"))
		return
	}
	if opts.Skip, err = queryInt(q, "skip"); err != nil {
		h.fail(w, r, err)
		return
	}
	sessions, err := h.svc.ListSessions(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// SessionStats summarizes one user's sessions.
func (h *Handler) SessionStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := queryInt(q, "days")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Summary(r.Context(), q.Get("user_id"), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetSession returns one session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// CreateSession stores a session from a JSON body.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in training.NewSession
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	sess, err := h.svc.CreateSession(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// RateSession sets a rating given as ?rating= or a JSON body.
func (h *Handler) RateSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rating, err := ratingFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.RateSession(r.Context(), id, rating); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Debug("rating updated", zap.Int64("id", id), zap.Int("rating", rating))
	writeJSON(w, http.StatusOK, RatingResponse{Message: "Rating updated", SessionID: id, Rating: rating})
}

func ratingFrom(r *http.Request) (int, error) {
	if raw := r.URL.Query().Get("rating"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, training.NewValidationError("rating", raw, "must be an integer")
		}
		return v, nil
	}
	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		return 0, training.NewValidationError("rating", nil, fmt.Sprintf("is required (query ?rating= or body %s)", `{"rating": n}`))
	}
	return *req.Rating, nil
}

// SubmitFeedback stores a feedback form for a session.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in training.FeedbackInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	fb, err := h.svc.SubmitFeedback(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// GetFeedback returns the feedback of a session.
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	fb, err := h.svc.GetFeedback(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}
