package engine

import "testing"

func TestParseBestMove(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"bestmove e2e4 ponder e7e5", "e2e4"},
		{"bestmove a7a8q", "a7a8q"},
		{"bestmove (none)", "(none)"},
		{"info depth 10", ""},
	}
	for _, tc := range cases {
		if got := parseBestMove(tc.line); got != tc.want {
			t.Fatalf("parseBestMove(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestParsePerftMove(t *testing.T) {
	cases := []struct {
		line string
		want string
		ok   bool
	}{
		{"e2e4: 1", "e2e4", true},
		{"a7a8q: 1", "a7a8q", true},
		{"Nodes searched: 20", "", false},
		{"info string something", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parsePerftMove(tc.line)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parsePerftMove(%q) = (%q, %v), want (%q, %v)", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseScore(t *testing.T) {
	var eval Evaluation
	parseScore("info depth 12 seldepth 18 score cp 35 nodes 12345 pv e2e4", &eval)
	if eval.ScoreCP != 35 || eval.Mate != 0 {
		t.Fatalf("cp score = %+v, want cp 35", eval)
	}

	parseScore("info depth 20 score mate 3 pv h5f7", &eval)
	if eval.Mate != 3 || eval.ScoreCP != 10000 {
		t.Fatalf("mate score = %+v, want mate 3", eval)
	}

	parseScore("info depth 20 score mate -2 pv a1a2", &eval)
	if eval.Mate != -2 || eval.ScoreCP != -10000 {
		t.Fatalf("negative mate = %+v, want mate -2", eval)
	}
}

func TestLevelConfigFallsBackToMidTier(t *testing.T) {
	if got := LevelConfig(7); got != levels[10] {
		t.Fatalf("LevelConfig(7) = %+v, want mid tier", got)
	}
	if got := LevelConfig(1); got.Skill != 0 || got.Depth != 1 {
		t.Fatalf("LevelConfig(1) = %+v", got)
	}
}

func TestSideToMove(t *testing.T) {
	if got := sideToMove("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"); got != "b" {
		t.Fatalf("sideToMove = %q, want b", got)
	}
}
