package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type analyzeMoveRequest struct {
	UserID string `json:"user_id"`
	FEN    string `json:"fen"`
	Move   string `json:"move"`
}

type feedbackRequest struct {
	UserID     string  `json:"user_id"`
	Correct    bool    `json:"correct"`
	TimeTaken  float64 `json:"time_taken"`
	Difficulty float64 `json:"difficulty"`
}

func (s *Server) handleAnalyzeMove(w http.ResponseWriter, r *http.Request) {
	var req analyzeMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" || req.FEN == "" || req.Move == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id, fen and move are required")
		return
	}

	analysis, err := s.tutor.AnalyzeMove(r.Context(), req.UserID, req.FEN, req.Move)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleAnalyzePosition(w http.ResponseWriter, r *http.Request) {
	fen := strings.TrimSpace(r.URL.Query().Get("fen"))
	if fen == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query parameter fen is required")
		return
	}
	depth := s.cfg.AnalysisDepth
	if d := r.URL.Query().Get("depth"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 || parsed > 30 {
			respondError(w, http.StatusBadRequest, "invalid_request", "depth must be between 1 and 30")
			return
		}
		depth = parsed
	}

	eval, err := s.oracle.Evaluate(r.Context(), fen, depth)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eval)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if req.TimeTaken < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "time_taken must not be negative")
		return
	}

	action := s.tutor.ReportOutcome(req.UserID, req.Correct, req.TimeTaken, req.Difficulty)
	tier := s.tutor.SelectPuzzleTier(req.UserID)
	respondJSON(w, http.StatusOK, map[string]any{
		"action": action.String(),
		"tier":   tier,
		"state":  s.tutor.Tracker().State(req.UserID),
	})
}

func (s *Server) handleUserTier(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	tier := s.tutor.SelectPuzzleTier(userID)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"tier":    tier,
	})
}
