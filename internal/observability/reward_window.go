package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// RewardSeriesStats summarizes one tracked series over the rolling window.
type RewardSeriesStats struct {
	Series  string  `json:"series"`
	Samples int     `json:"samples"`
	Last    float64 `json:"last"`
	Avg     float64 `json:"avg"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
}

// RewardSnapshot is a point-in-time view of recent tutoring signals.
type RewardSnapshot struct {
	GeneratedAt time.Time           `json:"generated_at"`
	WindowSize  int                 `json:"window_size"`
	Series      []RewardSeriesStats `json:"series"`
}

// RewardWindow keeps a fixed-size ring buffer of recent reward and timing
// samples per series, cheap enough to query from a perf endpoint.
type RewardWindow struct {
	mu         sync.RWMutex
	maxSamples int
	series     map[string]*sampleBuffer
}

type sampleBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func NewRewardWindow(maxSamples int) *RewardWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &RewardWindow{
		maxSamples: maxSamples,
		series:     make(map[string]*sampleBuffer),
	}
}

func (w *RewardWindow) Observe(series string, v float64) {
	if series == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.series[series]
	if !ok {
		buf = &sampleBuffer{values: make([]float64, w.maxSamples)}
		w.series[series] = buf
	}
	buf.values[buf.next] = v
	buf.last = v
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *RewardWindow) Snapshot() RewardSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.series))
	for name := range w.series {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	series := make([]RewardSeriesStats, 0, len(keys))
	for _, name := range keys {
		buf := w.series[name]
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		series = append(series, RewardSeriesStats{
			Series:  name,
			Samples: n,
			Last:    round2(buf.last),
			Avg:     round2(sum / float64(n)),
			P50:     round2(quantile(samples, 0.50)),
			P95:     round2(quantile(samples, 0.95)),
		})
	}

	return RewardSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Series:      series,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
