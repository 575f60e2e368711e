package tutor

import "testing"

func TestRewardCorrectAndFast(t *testing.T) {
	// Base +1.0, speed bonus +0.5. Target time for difficulty 0.5 is 40s, so
	// a 20s solve is outside the 15s engagement window.
	if got := Reward(true, 20, 0.5); !almostEqual(got, 1.5) {
		t.Fatalf("reward = %v, want 1.5", got)
	}
}

func TestRewardIncorrectNearTarget(t *testing.T) {
	// Base -0.5, engagement bonus +0.3: difficulty 0.5 targets 40s and 35s
	// lands inside the window.
	if got := Reward(false, 35, 0.5); !almostEqual(got, -0.2) {
		t.Fatalf("reward = %v, want -0.2", got)
	}
}

func TestRewardStacksAllBonuses(t *testing.T) {
	// Difficulty 0.8 targets 22s; a 25s correct solve earns base, speed and
	// engagement bonuses.
	if got := Reward(true, 25, 0.8); !almostEqual(got, 1.8) {
		t.Fatalf("reward = %v, want 1.8", got)
	}
}

func TestRewardSlowIncorrect(t *testing.T) {
	if got := Reward(false, 120, 0.2); !almostEqual(got, -0.5) {
		t.Fatalf("reward = %v, want -0.5", got)
	}
}
