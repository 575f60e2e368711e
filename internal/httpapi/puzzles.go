package httpapi

import (
	"net/http"

	"github.com/antoniostano/caissa/internal/puzzle"
)

type generatePuzzleRequest struct {
	UserID     string `json:"user_id"`
	UserRating int    `json:"user_rating"`
}

type validatePuzzleRequest struct {
	PuzzleID  string   `json:"puzzle_id"`
	UserID    string   `json:"user_id"`
	UserMoves []string `json:"user_moves"`
	TimeTaken float64  `json:"time_taken"`
}

type hintRequest struct {
	FEN       string   `json:"fen"`
	Solution  []string `json:"puzzle_solution"`
	HintLevel int      `json:"hint_level"`
}

func (s *Server) handleGeneratePuzzle(w http.ResponseWriter, r *http.Request) {
	var req generatePuzzleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if req.UserRating <= 0 {
		req.UserRating = 1200
	}

	tier := s.tutor.SelectPuzzleTier(req.UserID)
	p, err := s.generator.Adaptive(r.Context(), tier, req.UserRating)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Served material drives the carried difficulty feature.
	s.tutor.Tracker().SetDifficulty(req.UserID, tier.Level())
	if s.metrics != nil {
		s.metrics.PuzzlesServed.WithLabelValues(string(tier)).Inc()
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleValidatePuzzle(w http.ResponseWriter, r *http.Request) {
	var req validatePuzzleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.PuzzleID == "" || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "puzzle_id and user_id are required")
		return
	}
	if req.TimeTaken <= 0 {
		req.TimeTaken = 30
	}

	p, err := s.puzzles.Get(r.Context(), req.PuzzleID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	correct, message := puzzle.ValidateSolution(req.UserMoves, p.Solution)
	action := s.tutor.ReportOutcome(req.UserID, correct, req.TimeTaken, s.tutor.Tracker().State(req.UserID).DifficultyLevel)

	respondJSON(w, http.StatusOK, map[string]any{
		"correct": correct,
		"message": message,
		"action":  action.String(),
	})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	hint, err := puzzle.HintFor(req.FEN, req.Solution, req.HintLevel)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, hint)
}
