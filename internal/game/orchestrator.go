package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/observability"
	"github.com/antoniostano/caissa/internal/reliability"
)

const (
	oracleAttempts    = 2
	oracleBackoffBase = 100 * time.Millisecond
	oracleBackoffCap  = 500 * time.Millisecond
)

// Orchestrator runs turn-based games. In-memory sessions are authoritative;
// the store is flushed best-effort after every successful submit.
type Orchestrator struct {
	validator engine.Validator
	oracle    engine.Oracle
	store     Store
	metrics   *observability.Metrics

	mu    sync.RWMutex
	games map[string]*liveGame
}

// liveGame serializes all submits for one game behind its own mutex.
type liveGame struct {
	mu      sync.Mutex
	session *Session
}

func NewOrchestrator(validator engine.Validator, oracle engine.Oracle, store Store, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		validator: validator,
		oracle:    oracle,
		store:     store,
		metrics:   metrics,
		games:     make(map[string]*liveGame),
	}
}

// Create allocates a new game at the standard initial position.
func (o *Orchestrator) Create(ctx context.Context, white, black Participant) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		White:     white,
		Black:     black,
		Status:    StatusCreated,
		Positions: []string{StartingFEN},
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	o.games[s.ID] = &liveGame{session: s}
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.ActiveGames.Inc()
	}
	o.flush(s)
	return cloneSession(s)
}

// Get returns the game's current state.
func (o *Orchestrator) Get(ctx context.Context, gameID string) (*Session, error) {
	g, err := o.live(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneSession(g.session), nil
}

// List returns the user's games from the store.
func (o *Orchestrator) List(ctx context.Context, userID string) ([]*Session, error) {
	return o.store.List(ctx, userID)
}

// SubmitMove applies the actor's move and, when the opposing side is
// automated, at most one engine reply. All appends for one call commit
// together: a failed or cancelled engine reply discards the initiating move
// as well, leaving the game exactly as it was.
func (o *Orchestrator) SubmitMove(ctx context.Context, gameID, move, actor string) (*MoveResult, error) {
	g, err := o.live(ctx, gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.session
	if s.Status == StatusCompleted {
		return nil, ErrCompleted
	}

	mover, color := s.ToMove()
	if mover.Automated {
		return o.reject(s, "It is the automated opponent's turn"), nil
	}
	if mover.UserID != "" && actor != mover.UserID {
		return o.reject(s, "It is not this player's turn"), nil
	}

	// Stage every mutation on a copy; the live session is replaced only
	// once the whole submit has succeeded.
	staged := cloneSession(s)

	vres, err := o.validator.Validate(ctx, staged.CurrentFEN(), move)
	if err != nil {
		return nil, fmt.Errorf("validate move: %w", err)
	}
	if !vres.Valid {
		return o.reject(s, vres.Reason), nil
	}

	applyPly(staged, move, vres.NewFEN, color, false)
	staged.Status = StatusInProgress
	res := &MoveResult{
		Accepted: true,
		Played:   &PlyRecord{Move: move, Position: vres.NewFEN, Color: color},
	}

	if vres.Terminal {
		complete(staged, vres.Result)
	} else if next, nextColor := staged.ToMove(); next.Automated {
		reply, rres, err := o.automatedReply(ctx, staged.CurrentFEN(), next.Level)
		if err != nil {
			if o.metrics != nil {
				o.metrics.OracleErrors.WithLabelValues("best_move").Inc()
			}
			return nil, err
		}
		applyPly(staged, reply, rres.NewFEN, nextColor, true)
		res.AutomatedReply = &PlyRecord{Move: reply, Position: rres.NewFEN, Color: nextColor}
		if rres.Terminal {
			complete(staged, rres.Result)
		}
	}

	staged.UpdatedAt = time.Now().UTC()
	g.session = staged

	res.Terminal = staged.Status == StatusCompleted
	res.Result = staged.Result
	res.Session = cloneSession(staged)

	if o.metrics != nil {
		o.metrics.MovesSubmitted.WithLabelValues("accepted").Inc()
		if res.Terminal {
			o.metrics.ActiveGames.Dec()
		}
	}
	o.flush(staged)
	return res, nil
}

// live finds the in-process game, falling back to the store so games survive
// a restart when a durable store is configured.
func (o *Orchestrator) live(ctx context.Context, gameID string) (*liveGame, error) {
	o.mu.RLock()
	g, ok := o.games[gameID]
	o.mu.RUnlock()
	if ok {
		return g, nil
	}

	sess, err := o.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if g, ok := o.games[gameID]; ok {
		return g, nil
	}
	g = &liveGame{session: sess}
	o.games[gameID] = g
	return g, nil
}

// automatedReply asks the oracle for a move, retrying once, and validates it
// against the staged position.
func (o *Orchestrator) automatedReply(ctx context.Context, fen string, level int) (string, engine.ValidationResult, error) {
	var move string
	err := reliability.Retry(ctx, oracleAttempts, oracleBackoffBase, oracleBackoffCap, func(ctx context.Context) error {
		m, err := o.oracle.BestMove(ctx, fen, level)
		if err != nil {
			return err
		}
		move = m
		return nil
	})
	if err != nil {
		return "", engine.ValidationResult{}, fmt.Errorf("automated reply: %w", err)
	}

	vres, err := o.validator.Validate(ctx, fen, move)
	if err != nil {
		return "", engine.ValidationResult{}, fmt.Errorf("validate automated reply: %w", err)
	}
	if !vres.Valid {
		return "", engine.ValidationResult{}, fmt.Errorf("automated reply %q rejected (%s): %w", move, vres.Reason, engine.ErrUnavailable)
	}
	return move, vres, nil
}

func (o *Orchestrator) reject(s *Session, reason string) *MoveResult {
	if o.metrics != nil {
		o.metrics.MovesSubmitted.WithLabelValues("rejected").Inc()
	}
	return &MoveResult{
		Accepted: false,
		Reason:   reason,
		Terminal: s.Status == StatusCompleted,
		Result:   s.Result,
		Session:  cloneSession(s),
	}
}

// flush writes the session to the store. Durability is best-effort: the
// in-memory session stays authoritative and failures only log a warning.
func (o *Orchestrator) flush(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.Persist(ctx, cloneSession(s)); err != nil {
		log.Printf("game store persist failed: game=%s err=%v", s.ID, err)
	}
}

func applyPly(s *Session, move, newFEN, color string, automated bool) {
	ply := len(s.Moves)
	s.Moves = append(s.Moves, move)
	s.Positions = append(s.Positions, newFEN)
	s.Analyses = append(s.Analyses, AnalysisRecord{
		Ply:        ply,
		Color:      color,
		Move:       move,
		Automated:  automated,
		Position:   newFEN,
		RecordedAt: time.Now().UTC(),
	})
}

func complete(s *Session, result string) {
	s.Status = StatusCompleted
	s.Result = result
}
