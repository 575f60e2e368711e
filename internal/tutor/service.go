package tutor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/observability"
	"github.com/antoniostano/caissa/internal/policy"
)

// Explainer produces natural-language move commentary. Best-effort: callers
// substitute fixed fallback text on failure and never surface the error.
type Explainer interface {
	Explain(ctx context.Context, fen, move string) (string, error)
	SuggestImprovement(ctx context.Context, fen, userMove, bestMove string) (string, error)
}

const (
	FallbackExplanation    = "Unable to generate explanation at this time."
	FallbackImprovement    = "Good effort! Consider analyzing this position further."
	IllegalMoveExplanation = "This move is not legal. Please try a different move."

	// Move analysis has no measured solve time; the tracker EMA uses this
	// neutral default.
	defaultAnalysisTime = 30.0
)

// MoveAnalysis is the tutoring verdict for one submitted move.
type MoveAnalysis struct {
	Valid       bool               `json:"valid"`
	Reason      string             `json:"reason,omitempty"`
	Correct     bool               `json:"correct"`
	NewFEN      string             `json:"new_fen,omitempty"`
	Explanation string             `json:"explanation"`
	Improvement string             `json:"improvement_suggestion,omitempty"`
	BestMove    string             `json:"best_move,omitempty"`
	Action      string             `json:"tutor_action"`
	Evaluation  *engine.Evaluation `json:"evaluation,omitempty"`
}

// ServiceParams wires the tutoring service's collaborators.
type ServiceParams struct {
	Tracker       *Tracker
	Policy        *policy.Network
	Validator     engine.Validator
	Oracle        engine.Oracle
	Explainer     Explainer
	Metrics       *observability.Metrics
	Window        *observability.RewardWindow
	EpisodeLength int
	AnalysisDepth int
}

// Service runs the adaptive tutoring loop: it folds outcomes into the
// per-user tracker, scores them, and drives the policy's decisions and
// updates.
type Service struct {
	tracker       *Tracker
	net           *policy.Network
	validator     engine.Validator
	oracle        engine.Oracle
	explainer     Explainer
	metrics       *observability.Metrics
	window        *observability.RewardWindow
	episodeLength int
	analysisDepth int

	mu       sync.Mutex
	episodes map[string]*episode
}

// episode buffers one user's steps until an update-worthy batch exists.
type episode struct {
	steps   []policy.Step
	touched time.Time
}

func NewService(p ServiceParams) *Service {
	if p.EpisodeLength <= 0 {
		p.EpisodeLength = 8
	}
	if p.AnalysisDepth <= 0 {
		p.AnalysisDepth = 15
	}
	if p.Tracker == nil {
		p.Tracker = NewTracker(nil)
	}
	return &Service{
		tracker:       p.Tracker,
		net:           p.Policy,
		validator:     p.Validator,
		oracle:        p.Oracle,
		explainer:     p.Explainer,
		metrics:       p.Metrics,
		window:        p.Window,
		episodeLength: p.EpisodeLength,
		analysisDepth: p.AnalysisDepth,
	}
}

func (s *Service) Tracker() *Tracker { return s.tracker }

// ReportOutcome folds one outcome into the user's performance state and
// returns the tutoring action the policy picked for it. The step joins the
// user's episode buffer; a full buffer triggers one policy update.
func (s *Service) ReportOutcome(userID string, correct bool, timeTaken, difficulty float64) policy.Action {
	state := s.tracker.StateVector(userID)
	action, logProb, _ := s.net.SelectAction(state)
	s.tracker.RecordOutcome(userID, correct, timeTaken)
	reward := Reward(correct, timeTaken, difficulty)

	s.mu.Lock()
	if s.episodes == nil {
		s.episodes = make(map[string]*episode)
	}
	ep, ok := s.episodes[userID]
	if !ok {
		ep = &episode{}
		s.episodes[userID] = ep
	}
	ep.steps = append(ep.steps, policy.Step{
		State:   state,
		Action:  action,
		LogProb: logProb,
		Reward:  reward,
	})
	ep.touched = time.Now()
	var finished []policy.Step
	if len(ep.steps) >= s.episodeLength {
		finished = ep.steps
		delete(s.episodes, userID)
	}
	s.mu.Unlock()

	if finished != nil {
		s.train(finished)
	}

	if s.metrics != nil {
		s.metrics.TutorActions.WithLabelValues(action.String()).Inc()
		s.metrics.Rewards.Observe(reward)
	}
	if s.window != nil {
		s.window.Observe("reward", reward)
		s.window.Observe("response_time_s", timeTaken)
	}
	return action
}

// SelectPuzzleTier maps the user's rolling accuracy to a difficulty tier.
func (s *Service) SelectPuzzleTier(userID string) Tier {
	return TierFor(s.tracker.State(userID).Accuracy)
}

// FlushStaleEpisodes pushes episode buffers idle for longer than maxAge
// through a policy update, so sporadic users still train the policy. Returns
// the number of episodes flushed.
func (s *Service) FlushStaleEpisodes(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	var stale [][]policy.Step
	for userID, ep := range s.episodes {
		if ep.touched.Before(cutoff) && len(ep.steps) > 0 {
			stale = append(stale, ep.steps)
			delete(s.episodes, userID)
		}
	}
	s.mu.Unlock()

	for _, steps := range stale {
		s.train(steps)
	}
	return len(stale)
}

func (s *Service) train(steps []policy.Step) {
	loss := s.net.Update(steps)
	if s.metrics != nil {
		s.metrics.PolicyUpdates.Inc()
		s.metrics.PolicyLoss.Observe(loss)
	}
}

// AnalyzeMove validates a move, compares it to the oracle's best line,
// attaches commentary, and reports the outcome through the tutoring loop.
func (s *Service) AnalyzeMove(ctx context.Context, userID, fen, move string) (MoveAnalysis, error) {
	vres, err := s.validator.Validate(ctx, fen, move)
	if err != nil {
		return MoveAnalysis{}, fmt.Errorf("validate move: %w", err)
	}
	if !vres.Valid {
		return MoveAnalysis{
			Valid:       false,
			Reason:      vres.Reason,
			Explanation: IllegalMoveExplanation,
		}, nil
	}

	eval, err := s.oracle.Evaluate(ctx, fen, s.analysisDepth)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OracleErrors.WithLabelValues("evaluate").Inc()
		}
		return MoveAnalysis{}, fmt.Errorf("evaluate position: %w", err)
	}
	correct := eval.BestMove != "" && move == eval.BestMove

	explanation, err := s.explainer.Explain(ctx, fen, move)
	if err != nil || explanation == "" {
		explanation = FallbackExplanation
	}
	improvement := ""
	if !correct {
		improvement, err = s.explainer.SuggestImprovement(ctx, fen, move, eval.BestMove)
		if err != nil || improvement == "" {
			improvement = FallbackImprovement
		}
	}

	difficulty := s.tracker.State(userID).DifficultyLevel
	action := s.ReportOutcome(userID, correct, defaultAnalysisTime, difficulty)

	return MoveAnalysis{
		Valid:       true,
		Correct:     correct,
		NewFEN:      vres.NewFEN,
		Explanation: explanation,
		Improvement: improvement,
		BestMove:    eval.BestMove,
		Action:      action.String(),
		Evaluation:  &eval,
	}, nil
}
