package trainer

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingFlusher struct {
	calls atomic.Int64
}

func (c *countingFlusher) FlushStaleEpisodes(time.Duration) int {
	c.calls.Add(1)
	return 0
}

func TestTrainerRunsFlushJob(t *testing.T) {
	f := &countingFlusher{}
	tr := New(f, 10*time.Millisecond, time.Minute)
	tr.Start()
	defer tr.Stop()

	deadline := time.After(2 * time.Second)
	for f.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("flush job never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTrainerStops(t *testing.T) {
	f := &countingFlusher{}
	tr := New(f, 10*time.Millisecond, time.Minute)
	tr.Start()
	tr.Stop()

	n := f.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if f.calls.Load() > n+1 {
		t.Fatal("flush job kept running after Stop")
	}
}
