package engine

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the engine process or transport failed; game
// state must not be mutated when it is returned.
var ErrUnavailable = errors.New("engine unavailable")

// Evaluation is the engine's judgement of a position.
type Evaluation struct {
	ScoreCP  int    `json:"score_cp"`
	Mate     int    `json:"mate,omitempty"`
	BestMove string `json:"best_move,omitempty"`
	Depth    int    `json:"depth"`
}

// ValidationResult reports whether a move is legal in a position and, when it
// is, the resulting position and terminality.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
	NewFEN   string `json:"new_fen,omitempty"`
	Terminal bool   `json:"terminal"`
	Result   string `json:"result,omitempty"`
}

// Validator checks move legality and computes the successor position.
type Validator interface {
	Validate(ctx context.Context, fen, move string) (ValidationResult, error)
}

// Oracle produces strength-leveled moves and position evaluations.
type Oracle interface {
	BestMove(ctx context.Context, fen string, level int) (string, error)
	Evaluate(ctx context.Context, fen string, depth int) (Evaluation, error)
}
