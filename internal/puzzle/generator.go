package puzzle

import (
	"context"
	"errors"

	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/tutor"
)

const (
	defaultMaxAttempts = 5
	verifyDepth        = 15
	ratingWindow       = 100
)

// Generator serves adaptive puzzles: it picks candidates from the repository
// for the user's tier and verifies each with the oracle before handing it
// out. Verification is bounded; exhaustion surfaces as ErrNoPuzzle rather
// than retrying forever.
type Generator struct {
	repo        *Repository
	oracle      engine.Oracle
	maxAttempts int
}

func NewGenerator(repo *Repository, oracle engine.Oracle, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Generator{repo: repo, oracle: oracle, maxAttempts: maxAttempts}
}

// TargetRating maps a difficulty tier onto the user's rating: easier tiers
// sit below it, harder tiers above, clamped to the 800..2200 pool.
func TargetRating(tier tutor.Tier, userRating int) int {
	switch tier {
	case tutor.TierBeginner:
		return max(800, userRating-200)
	case tutor.TierAdvanced:
		return min(2200, userRating+200)
	default:
		return userRating
	}
}

// Adaptive returns a verified puzzle for the tier, or ErrNoPuzzle once
// the retry attempts are exhausted.
func (g *Generator) Adaptive(ctx context.Context, tier tutor.Tier, userRating int) (*Puzzle, error) {
	rating := TargetRating(tier, userRating)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := g.repo.Random(ctx, string(tier), rating-ratingWindow, rating+ratingWindow)
		if err != nil {
			if errors.Is(err, ErrNoPuzzle) {
				// Nothing stored in this window; more attempts won't help.
				return nil, ErrNoPuzzle
			}
			return nil, err
		}

		eval, err := g.oracle.Evaluate(ctx, p.FEN, verifyDepth)
		if err != nil || eval.BestMove == "" {
			// Unverifiable or terminal position, draw another candidate.
			continue
		}
		if len(p.Solution) == 0 {
			p.Solution = []string{eval.BestMove}
		}
		return p, nil
	}
	return nil, ErrNoPuzzle
}

// ValidateSolution grades the user's attempt against the stored solution.
// Only the first move decides correctness.
func ValidateSolution(userMoves, solution []string) (bool, string) {
	if len(userMoves) == 0 || len(solution) == 0 || userMoves[0] != solution[0] {
		return false, "Incorrect move. Try to find the tactical sequence!"
	}
	return true, "Excellent move! That's the correct solution."
}
