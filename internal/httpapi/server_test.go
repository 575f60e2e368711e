package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/caissa/internal/config"
	"github.com/antoniostano/caissa/internal/engine"
	"github.com/antoniostano/caissa/internal/explain"
	"github.com/antoniostano/caissa/internal/game"
	"github.com/antoniostano/caissa/internal/observability"
	"github.com/antoniostano/caissa/internal/policy"
	"github.com/antoniostano/caissa/internal/puzzle"
	"github.com/antoniostano/caissa/internal/tutor"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	metricsOnce sync.Once
	testMetrics *observability.Metrics
)

func sharedMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		testMetrics = observability.NewMetrics("test_httpapi")
	})
	return testMetrics
}

type testEnv struct {
	srv  *httptest.Server
	mock *engine.Mock
	repo *puzzle.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mock := engine.NewMock()
	repo, err := puzzle.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	metrics := sharedMetrics()
	tracker := tutor.NewTracker(nil)
	svc := tutor.NewService(tutor.ServiceParams{
		Tracker:   tracker,
		Policy:    policy.NewNetwork(1),
		Validator: mock,
		Oracle:    mock,
		Explainer: explain.NewStatic(),
		Metrics:   metrics,
		Window:    observability.NewRewardWindow(128),
	})
	orch := game.NewOrchestrator(mock, mock, game.NewInMemoryStore(), metrics)

	server := New(Params{
		Config:       config.Config{AllowAnyOrigin: true, AnalysisDepth: 15},
		Orchestrator: orch,
		Tutor:        svc,
		Oracle:       mock,
		Puzzles:      repo,
		Generator:    puzzle.NewGenerator(repo, mock, 5),
		Metrics:      metrics,
		Window:       observability.NewRewardWindow(128),
		EngineName:   "mock",
	})

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return &testEnv{srv: ts, mock: mock, repo: repo}
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return res.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return res.StatusCode
}

func TestCreateGameAndSubmitMove(t *testing.T) {
	env := newTestEnv(t)

	var created game.Session
	status := postJSON(t, env.srv.URL+"/v1/games", map[string]any{"user_id": "u1", "level": 10}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", status, http.StatusCreated)
	}
	if created.ID == "" || created.Positions[0] != startFEN {
		t.Fatalf("unexpected created game: %+v", created)
	}

	var res game.MoveResult
	status = postJSON(t, env.srv.URL+"/v1/games/"+created.ID+"/moves",
		map[string]any{"move": "e2e4", "user_id": "u1"}, &res)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d, want %d", status, http.StatusOK)
	}
	if !res.Accepted || res.AutomatedReply == nil {
		t.Fatalf("unexpected move result: %+v", res)
	}

	var fetched game.Session
	if status := getJSON(t, env.srv.URL+"/v1/games/"+created.ID, &fetched); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if len(fetched.Moves) != 2 {
		t.Fatalf("moves = %v, want two plies", fetched.Moves)
	}

	var listed struct {
		Games []game.Session `json:"games"`
	}
	if status := getJSON(t, env.srv.URL+"/v1/users/u1/games", &listed); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(listed.Games) != 1 {
		t.Fatalf("listed %d games, want 1", len(listed.Games))
	}
}

func TestSubmitMoveUnknownGame(t *testing.T) {
	env := newTestEnv(t)
	status := postJSON(t, env.srv.URL+"/v1/games/nope/moves",
		map[string]any{"move": "e2e4", "user_id": "u1"}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", status, http.StatusNotFound)
	}
}

func TestCompletedGameReturnsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Script(startFEN, "e2e4", engine.ValidationResult{
		Valid: true, NewFEN: "8/8/8/8/8/8/8/k1K5 b - - 0 1", Terminal: true, Result: "1-0",
	})

	var created game.Session
	postJSON(t, env.srv.URL+"/v1/games", map[string]any{"user_id": "u1"}, &created)
	postJSON(t, env.srv.URL+"/v1/games/"+created.ID+"/moves", map[string]any{"move": "e2e4", "user_id": "u1"}, nil)

	status := postJSON(t, env.srv.URL+"/v1/games/"+created.ID+"/moves",
		map[string]any{"move": "a7a6", "user_id": "u1"}, nil)
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", status, http.StatusConflict)
	}
}

func TestAnalyzeMoveEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.mock.BestMoves[startFEN] = "e2e4"

	var analysis tutor.MoveAnalysis
	status := postJSON(t, env.srv.URL+"/v1/moves/analyze",
		map[string]any{"user_id": "u1", "fen": startFEN, "move": "e2e4"}, &analysis)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if !analysis.Valid || !analysis.Correct || analysis.Action == "" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestAnalyzePositionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var eval engine.Evaluation
	status := getJSON(t, env.srv.URL+"/v1/analysis/position?fen="+strings.ReplaceAll(startFEN, " ", "%20"), &eval)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if eval.BestMove == "" {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}

	if status := getJSON(t, env.srv.URL+"/v1/analysis/position", nil); status != http.StatusBadRequest {
		t.Fatalf("missing fen status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestFeedbackAndTierEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var out struct {
		Action string `json:"action"`
		Tier   string `json:"tier"`
	}
	status := postJSON(t, env.srv.URL+"/v1/feedback",
		map[string]any{"user_id": "u1", "correct": true, "time_taken": 12.0, "difficulty": 0.5}, &out)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if out.Action == "" || out.Tier == "" {
		t.Fatalf("unexpected feedback response: %+v", out)
	}

	var tier struct {
		Tier string `json:"tier"`
	}
	if status := getJSON(t, env.srv.URL+"/v1/users/u1/tier", &tier); status != http.StatusOK {
		t.Fatalf("tier status = %d", status)
	}
	if tier.Tier == "" {
		t.Fatal("empty tier")
	}
}

func TestPuzzleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	stored := &puzzle.Puzzle{FEN: startFEN, Solution: []string{"e2e4"}, Tier: "intermediate", Theme: "fork", Rating: 1200}
	if err := env.repo.Add(context.Background(), stored); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var served puzzle.Puzzle
	status := postJSON(t, env.srv.URL+"/v1/puzzles", map[string]any{"user_id": "u1", "user_rating": 1200}, &served)
	if status != http.StatusOK {
		t.Fatalf("generate status = %d, want %d", status, http.StatusOK)
	}
	if served.ID != stored.ID {
		t.Fatalf("served puzzle %q, want %q", served.ID, stored.ID)
	}

	var verdict struct {
		Correct bool   `json:"correct"`
		Message string `json:"message"`
	}
	status = postJSON(t, env.srv.URL+"/v1/puzzles/validate",
		map[string]any{"puzzle_id": served.ID, "user_id": "u1", "user_moves": []string{"e2e4"}}, &verdict)
	if status != http.StatusOK {
		t.Fatalf("validate status = %d, want %d", status, http.StatusOK)
	}
	if !verdict.Correct {
		t.Fatalf("correct solution rejected: %s", verdict.Message)
	}

	var hint puzzle.Hint
	status = postJSON(t, env.srv.URL+"/v1/puzzles/hint",
		map[string]any{"fen": startFEN, "puzzle_solution": []string{"e2e4"}, "hint_level": 2}, &hint)
	if status != http.StatusOK {
		t.Fatalf("hint status = %d, want %d", status, http.StatusOK)
	}
	if hint.Text != "Look at moving a piece to e4." {
		t.Fatalf("hint = %q", hint.Text)
	}
}

func TestGeneratePuzzleEmptyRepository(t *testing.T) {
	env := newTestEnv(t)
	status := postJSON(t, env.srv.URL+"/v1/puzzles", map[string]any{"user_id": "u1"}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", status, http.StatusNotFound)
	}
}

func TestPerfRewardsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	postJSON(t, env.srv.URL+"/v1/feedback",
		map[string]any{"user_id": "u1", "correct": true, "time_taken": 10.0, "difficulty": 0.5}, nil)

	var snap observability.RewardSnapshot
	if status := getJSON(t, env.srv.URL+"/v1/perf/rewards", &snap); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
}

func TestTutorWebSocket(t *testing.T) {
	env := newTestEnv(t)
	env.mock.BestMoves[startFEN] = "e2e4"

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/v1/tutor/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	req := map[string]any{"type": "analyze_move", "user_id": "u1", "fen": startFEN, "move": "e2e4"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp struct {
		Type     string             `json:"type"`
		Analysis tutor.MoveAnalysis `json:"analysis"`
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "move_analysis" || !resp.Analysis.Correct {
		t.Fatalf("unexpected ws response: %+v", resp)
	}

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var errEvent struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	if err := conn.ReadJSON(&errEvent); err != nil {
		t.Fatalf("read error event: %v", err)
	}
	if errEvent.Type != "error_event" || errEvent.Code != "invalid_client_message" {
		t.Fatalf("unexpected error event: %+v", errEvent)
	}
}
