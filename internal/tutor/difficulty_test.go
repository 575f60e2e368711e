package tutor

import "testing"

func TestTierFor(t *testing.T) {
	cases := []struct {
		accuracy float64
		want     Tier
	}{
		{0.0, TierBeginner},
		{0.39, TierBeginner},
		{0.4, TierIntermediate},
		{0.69, TierIntermediate},
		{0.7, TierAdvanced},
		{1.0, TierAdvanced},
	}
	for _, c := range cases {
		if got := TierFor(c.accuracy); got != c.want {
			t.Fatalf("TierFor(%v) = %q, want %q", c.accuracy, got, c.want)
		}
	}
}
