package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/caissa/internal/config"
	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/game"
	"github.com/antoniostano/caissa/internal/observability"
	"github.com/antoniostano/caissa/internal/puzzle"
	"github.com/antoniostano/caissa/internal/tutor"
)

// Params wires the server's collaborators.
type Params struct {
	Config       config.Config
	Orchestrator *game.Orchestrator
	Tutor        *tutor.Service
	Oracle       engine.Oracle
	Puzzles      *puzzle.Repository
	Generator    *puzzle.Generator
	Metrics      *observability.Metrics
	Window       *observability.RewardWindow
	EngineName   string
}

type Server struct {
	cfg          config.Config
	orchestrator *game.Orchestrator
	tutor        *tutor.Service
	oracle       engine.Oracle
	puzzles      *puzzle.Repository
	generator    *puzzle.Generator
	metrics      *observability.Metrics
	window       *observability.RewardWindow
	engineName   string
	upgrader     websocket.Upgrader
}

func New(p Params) *Server {
	cfg := p.Config
	return &Server{
		cfg:          cfg,
		orchestrator: p.Orchestrator,
		tutor:        p.Tutor,
		oracle:       p.Oracle,
		puzzles:      p.Puzzles,
		generator:    p.Generator,
		metrics:      p.Metrics,
		window:       p.Window,
		engineName:   p.EngineName,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up; other sites must not drive a user's tutoring
				// session if this is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/games", s.handleCreateGame)
	r.Post("/v1/games/{id}/moves", s.handleSubmitMove)
	r.Get("/v1/games/{id}", s.handleGetGame)
	r.Get("/v1/users/{id}/games", s.handleListGames)

	r.Post("/v1/moves/analyze", s.handleAnalyzeMove)
	r.Get("/v1/analysis/position", s.handleAnalyzePosition)

	r.Post("/v1/puzzles", s.handleGeneratePuzzle)
	r.Post("/v1/puzzles/validate", s.handleValidatePuzzle)
	r.Post("/v1/puzzles/hint", s.handleHint)

	r.Post("/v1/feedback", s.handleFeedback)
	r.Get("/v1/users/{id}/tier", s.handleUserTier)
	r.Get("/v1/tutor/ws", s.handleTutorWS)
	r.Get("/v1/perf/rewards", s.handlePerfRewards)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"engine": s.engineName,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"engine": s.engineName,
	})
}

func (s *Server) handlePerfRewards(w http.ResponseWriter, _ *http.Request) {
	if s.window == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"series":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.window.Snapshot())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondDomainError maps well-known failures onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		respondError(w, http.StatusNotFound, "game_not_found", err.Error())
	case errors.Is(err, game.ErrCompleted):
		respondError(w, http.StatusConflict, "game_completed", err.Error())
	case errors.Is(err, puzzle.ErrNoPuzzle):
		respondError(w, http.StatusNotFound, "no_puzzle", err.Error())
	case errors.Is(err, engine.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "engine_unavailable", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
