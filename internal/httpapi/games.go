package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/caissa/internal/game"
)

type createGameRequest struct {
	UserID string `json:"user_id"`
	// Side the user plays; the other side is automated at Level. Supplying
	// both participants explicitly overrides this shorthand.
	Level int               `json:"level"`
	White *game.Participant `json:"white,omitempty"`
	Black *game.Participant `json:"black,omitempty"`
}

type submitMoveRequest struct {
	Move   string `json:"move"`
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	white := game.Participant{UserID: strings.TrimSpace(req.UserID)}
	level := req.Level
	if level <= 0 {
		level = 10
	}
	black := game.Participant{Automated: true, Level: level}
	if req.White != nil {
		white = *req.White
	}
	if req.Black != nil {
		black = *req.Black
	}
	if !white.Automated && white.UserID == "" && req.White != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "white needs a user_id or automated flag")
		return
	}

	sess := s.orchestrator.Create(r.Context(), white, black)
	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSubmitMove(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	var req submitMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Move) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "move is required")
		return
	}

	res, err := s.orchestrator.SubmitMove(r.Context(), gameID, req.Move, req.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.orchestrator.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.orchestrator.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*game.Session{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"games": sessions})
}
