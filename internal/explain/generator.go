package explain

import (
	"context"
	"fmt"
)

// Generator produces tutoring commentary for moves. Implementations are
// best-effort; callers substitute fixed fallback text on error.
type Generator interface {
	Explain(ctx context.Context, fen, move string) (string, error)
	SuggestImprovement(ctx context.Context, fen, userMove, bestMove string) (string, error)
}

// Static is a canned-text generator for runs without a language model.
type Static struct{}

func NewStatic() *Static { return &Static{} }

func (*Static) Explain(_ context.Context, _, move string) (string, error) {
	return fmt.Sprintf("%s develops your position. Look at which squares it now controls and what it leaves undefended.", move), nil
}

func (*Static) SuggestImprovement(_ context.Context, _, userMove, bestMove string) (string, error) {
	return fmt.Sprintf("%s is playable, but %s was stronger here. Compare what each move threatens before committing.", userMove, bestMove), nil
}
