package tutor

import "math"

// Reward turns one outcome into a scalar training signal. Correct answers
// earn the base reward plus a speed bonus under 30 seconds; answers whose
// time lands near the difficulty-scaled expected time earn a pacing bonus.
// The result is an unclamped sum.
func Reward(correct bool, timeTaken, difficulty float64) float64 {
	reward := 0.0
	if correct {
		reward += 1.0
		if timeTaken < 30.0 {
			reward += 0.5
		}
	} else {
		reward -= 0.5
	}

	expectedTime := 60.0*(1.0-difficulty) + 10.0
	if math.Abs(timeTaken-expectedTime) < 15.0 {
		reward += 0.3
	}
	return reward
}
