package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

// AnalyzeRequest carries optional audio features. Missing values are drawn
// at random by the estimator.
type AnalyzeRequest struct {
	Tempo  *float64 `json:"tempo"`
	Energy *float64 `json:"energy"`
}

// AnalyzeResponse is the estimate for one request.
type AnalyzeResponse struct {
	Bands    brainwave.BandDistribution `json:"bands"`
	Emotion  brainwave.EmotionEstimate  `json:"emotion"`
	Dominant brainwave.Dominant         `json:"dominant"`
}

// BandEntry is one row of the band table.
type BandEntry struct {
	Band brainwave.Band `json:"band"`
	brainwave.BandInfo
}

// BandsResponse lists the bands and the target states built on them.
type BandsResponse struct {
	Bands        []BandEntry             `json:"bands"`
	TargetStates []brainwave.TargetState `json:"target_states"`
}

// Analyze estimates a band distribution. An empty body is allowed.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	bands := h.est.EstimateBands(brainwave.Features{Tempo: req.Tempo, Energy: req.Energy})
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Bands:    bands,
		Emotion:  brainwave.DeriveEmotion(bands),
		Dominant: brainwave.DominantBand(bands),
	})
}

// AudioFeatures returns a synthetic feature set.
func (h *Handler) AudioFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.est.SynthesizeAudioFeatures())
}

// Music returns music parameters for a target state. Unknown states are
// echoed back with focus-like parameters.
func (h *Handler) Music(w http.ResponseWriter, r *http.Request) {
	state := mux.Vars(r)["state"]
	writeJSON(w, http.StatusOK, h.est.GenerateMusicParameters(state))
}

// Bands returns the band reference table.
func (h *Handler) Bands(w http.ResponseWriter, r *http.Request) {
	resp := BandsResponse{}
	for _, b := range brainwave.Bands() {
		info, _ := brainwave.Info(b)
		resp.Bands = append(resp.Bands, BandEntry{Band: b, BandInfo: info})
	}
	for _, name := range brainwave.TargetStateNames() {
		ts, _ := brainwave.LookupTargetState(name)
		resp.TargetStates = append(resp.TargetStates, ts)
	}
	writeJSON(w, http.StatusOK, resp)
}
