package tutor

// Tier is a puzzle difficulty band.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Level places the tier on the 0..1 difficulty scale the reward model and
// state vector use.
func (t Tier) Level() float64 {
	switch t {
	case TierBeginner:
		return 0.2
	case TierAdvanced:
		return 0.8
	default:
		return 0.5
	}
}

// TierFor maps rolling accuracy to a difficulty tier. Bands are strict
// less-than on purpose: 0.4 is already intermediate, 0.7 already advanced.
func TierFor(accuracy float64) Tier {
	switch {
	case accuracy < 0.4:
		return TierBeginner
	case accuracy < 0.7:
		return TierIntermediate
	default:
		return TierAdvanced
	}
}
