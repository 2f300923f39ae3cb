package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/middleware"
	"github.com/permutive/signalbridge/internal/models"
	"github.com/permutive/signalbridge/internal/signal"
)

// enrichRequest is the /v1/enrich payload: the fragment container to
// mutate, the optional legacy ad units and an optional caller config
// layer.
type enrichRequest struct {
	UserID    string                   `json:"user_id"`
	Fragments *models.RequestFragments `json:"ortb2_fragments"`
	AdUnits   []models.AdUnit          `json:"ad_units,omitempty"`
	Config    *signal.Config           `json:"config,omitempty"`
}

type enrichResponse struct {
	Fragments *models.RequestFragments `json:"ortb2_fragments"`
	AdUnits   []models.AdUnit          `json:"ad_units,omitempty"`
}

// EnrichHandler runs one engine pass over the posted fragments and
// returns them mutated. When the resolved config defers completion to
// SDK readiness, the wait is bounded by the request context; on
// timeout the first-pass data is returned as-is.
func (s *Server) EnrichHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "enrich"
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var in enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.Metrics.IncrementRequests(endpoint, method, "400")
		return
	}

	req := &models.EnrichmentRequest{
		UserID:    in.UserID,
		Fragments: in.Fragments,
		AdUnits:   in.AdUnits,
	}
	var caller signal.Config
	if in.Config != nil {
		caller = *in.Config
	}

	done := s.Engine.Prepare(r.Context(), s.Store.User(in.UserID), req, caller)
	select {
	case <-done:
	case <-r.Context().Done():
		logger.Debug("enrichment wait cut short by request deadline",
			zap.String("user_id", in.UserID))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(enrichResponse{
		Fragments: req.Fragments,
		AdUnits:   req.AdUnits,
	}); err != nil {
		logger.Error("encode enrich response", zap.Error(err))
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
