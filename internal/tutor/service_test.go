package tutor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/policy"
)

const testFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type stubExplainer struct {
	explanation string
	improvement string
	err         error
}

func (s *stubExplainer) Explain(context.Context, string, string) (string, error) {
	return s.explanation, s.err
}

func (s *stubExplainer) SuggestImprovement(context.Context, string, string, string) (string, error) {
	return s.improvement, s.err
}

func newTestService(t *testing.T, mock *engine.Mock, exp Explainer) *Service {
	t.Helper()
	if exp == nil {
		exp = &stubExplainer{explanation: "solid opening move", improvement: "develop a knight"}
	}
	return NewService(ServiceParams{
		Policy:        policy.NewNetwork(1),
		Validator:     mock,
		Oracle:        mock,
		Explainer:     exp,
		EpisodeLength: 3,
	})
}

func TestAnalyzeMoveCorrect(t *testing.T) {
	mock := engine.NewMock()
	mock.BestMoves[testFEN] = "e2e4"
	svc := newTestService(t, mock, nil)

	res, err := svc.AnalyzeMove(context.Background(), "u1", testFEN, "e2e4")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if !res.Valid || !res.Correct {
		t.Fatalf("got valid=%v correct=%v, want both true", res.Valid, res.Correct)
	}
	if res.Improvement != "" {
		t.Fatalf("correct move got improvement %q, want none", res.Improvement)
	}
	if res.Explanation != "solid opening move" {
		t.Fatalf("explanation = %q", res.Explanation)
	}
	if st := svc.Tracker().State("u1"); st.TotalAttempts != 1 || st.CorrectAttempts != 1 {
		t.Fatalf("tracker not updated: %+v", st)
	}
}

func TestAnalyzeMoveSuboptimal(t *testing.T) {
	mock := engine.NewMock()
	mock.BestMoves[testFEN] = "e2e4"
	svc := newTestService(t, mock, nil)

	res, err := svc.AnalyzeMove(context.Background(), "u1", testFEN, "a2a3")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if !res.Valid || res.Correct {
		t.Fatalf("got valid=%v correct=%v, want valid suboptimal", res.Valid, res.Correct)
	}
	if res.BestMove != "e2e4" {
		t.Fatalf("best move = %q, want e2e4", res.BestMove)
	}
	if res.Improvement != "develop a knight" {
		t.Fatalf("improvement = %q", res.Improvement)
	}
}

func TestAnalyzeMoveIllegal(t *testing.T) {
	mock := engine.NewMock()
	mock.Script(testFEN, "e2e5", engine.ValidationResult{Valid: false, Reason: "Illegal move"})
	svc := newTestService(t, mock, nil)

	res, err := svc.AnalyzeMove(context.Background(), "u1", testFEN, "e2e5")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if res.Valid {
		t.Fatal("illegal move reported valid")
	}
	if res.Explanation != IllegalMoveExplanation {
		t.Fatalf("explanation = %q", res.Explanation)
	}
	if mock.EvaluateCalls != 0 {
		t.Fatalf("oracle consulted %d times for an illegal move", mock.EvaluateCalls)
	}
	if st := svc.Tracker().State("u1"); st.TotalAttempts != 0 {
		t.Fatalf("illegal move counted as an attempt: %+v", st)
	}
}

func TestAnalyzeMoveOracleFailure(t *testing.T) {
	mock := engine.NewMock()
	svc := newTestService(t, mock, nil)
	mockOracle := engine.NewMock()
	mockOracle.Err = engine.ErrUnavailable
	svc.oracle = mockOracle

	_, err := svc.AnalyzeMove(context.Background(), "u1", testFEN, "e2e4")
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAnalyzeMoveExplainerFailureFallsBack(t *testing.T) {
	mock := engine.NewMock()
	mock.BestMoves[testFEN] = "e2e4"
	svc := newTestService(t, mock, &stubExplainer{err: errors.New("llm down")})

	res, err := svc.AnalyzeMove(context.Background(), "u1", testFEN, "a2a3")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if res.Explanation != FallbackExplanation {
		t.Fatalf("explanation = %q, want fallback", res.Explanation)
	}
	if res.Improvement != FallbackImprovement {
		t.Fatalf("improvement = %q, want fallback", res.Improvement)
	}
}

func TestReportOutcomeTriggersUpdateAtEpisodeLength(t *testing.T) {
	svc := newTestService(t, engine.NewMock(), nil)

	for i := 0; i < 3; i++ {
		svc.ReportOutcome("u1", true, 10, 0.5)
	}
	svc.mu.Lock()
	_, pending := svc.episodes["u1"]
	svc.mu.Unlock()
	if pending {
		t.Fatal("episode buffer not cleared after reaching episode length")
	}
}

func TestFlushStaleEpisodes(t *testing.T) {
	svc := newTestService(t, engine.NewMock(), nil)
	svc.ReportOutcome("u1", true, 10, 0.5)
	svc.ReportOutcome("u2", false, 40, 0.5)

	if n := svc.FlushStaleEpisodes(time.Hour); n != 0 {
		t.Fatalf("flushed %d fresh episodes, want 0", n)
	}

	svc.mu.Lock()
	for _, ep := range svc.episodes {
		ep.touched = time.Now().Add(-time.Hour)
	}
	svc.mu.Unlock()

	if n := svc.FlushStaleEpisodes(30 * time.Minute); n != 2 {
		t.Fatalf("flushed %d stale episodes, want 2", n)
	}
	svc.mu.Lock()
	remaining := len(svc.episodes)
	svc.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("%d episodes remain after flush", remaining)
	}
}

func TestSelectPuzzleTierUsesAccuracy(t *testing.T) {
	svc := newTestService(t, engine.NewMock(), nil)
	if got := svc.SelectPuzzleTier("fresh"); got != TierIntermediate {
		t.Fatalf("tier for default accuracy = %q, want intermediate", got)
	}
}
