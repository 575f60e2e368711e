package trainer

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Flusher pushes stale episode buffers through a policy update.
type Flusher interface {
	FlushStaleEpisodes(maxAge time.Duration) int
}

// Trainer periodically flushes episodes that stopped growing, so users who
// wander off still contribute their partial episodes to training.
type Trainer struct {
	scheduler *gocron.Scheduler
	flusher   Flusher
	interval  time.Duration
	maxAge    time.Duration
}

func New(flusher Flusher, interval, maxAge time.Duration) *Trainer {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	return &Trainer{
		scheduler: gocron.NewScheduler(time.UTC),
		flusher:   flusher,
		interval:  interval,
		maxAge:    maxAge,
	}
}

// Start schedules the flush job and runs the scheduler in the background.
func (t *Trainer) Start() {
	t.scheduler.Every(t.interval).Do(t.flush)
	t.scheduler.StartAsync()
}

// Stop terminates the scheduler.
func (t *Trainer) Stop() {
	t.scheduler.Stop()
}

func (t *Trainer) flush() {
	if n := t.flusher.FlushStaleEpisodes(t.maxAge); n > 0 {
		log.Printf("trainer flushed %d stale episodes", n)
	}
}
