package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a scripted engine used in tests and engine-less development. Moves
// submitted to Validate are accepted unless scripted otherwise; the successor
// position is synthesized by flipping the side to move.
type Mock struct {
	mu sync.Mutex

	// Scripted outcomes keyed by "fen|move". Unscripted moves are valid and
	// non-terminal.
	Validations map[string]ValidationResult
	// Scripted best moves keyed by fen; DefaultMove is used otherwise.
	BestMoves   map[string]string
	DefaultMove string

	// Err, when set, is returned by every call.
	Err error

	ValidateCalls int
	BestMoveCalls int
	EvaluateCalls int
}

func NewMock() *Mock {
	return &Mock{
		Validations: make(map[string]ValidationResult),
		BestMoves:   make(map[string]string),
		DefaultMove: "e7e5",
	}
}

func (m *Mock) Script(fen, move string, res ValidationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Validations[fen+"|"+move] = res
}

func (m *Mock) Validate(_ context.Context, fen, move string) (ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidateCalls++
	if m.Err != nil {
		return ValidationResult{}, m.Err
	}
	if res, ok := m.Validations[fen+"|"+move]; ok {
		return res, nil
	}
	if len(strings.TrimSpace(move)) < 4 {
		return ValidationResult{Valid: false, Reason: "Invalid move notation"}, nil
	}
	return ValidationResult{Valid: true, NewFEN: flipSide(fen)}, nil
}

func (m *Mock) BestMove(_ context.Context, fen string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BestMoveCalls++
	if m.Err != nil {
		return "", m.Err
	}
	if move, ok := m.BestMoves[fen]; ok {
		return move, nil
	}
	return m.DefaultMove, nil
}

func (m *Mock) Evaluate(_ context.Context, fen string, depth int) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EvaluateCalls++
	if m.Err != nil {
		return Evaluation{}, m.Err
	}
	best := m.DefaultMove
	if move, ok := m.BestMoves[fen]; ok {
		best = move
	}
	return Evaluation{ScoreCP: 25, BestMove: best, Depth: depth}, nil
}

// flipSide toggles the side-to-move field so successive mock positions stay
// distinct and keep alternating turns.
func flipSide(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return fen + " b"
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if len(fields) >= 6 {
		var full int
		fmt.Sscanf(fields[5], "%d", &full)
		if fields[1] == "w" {
			fields[5] = fmt.Sprintf("%d", full+1)
		}
	}
	return strings.Join(fields, " ")
}
