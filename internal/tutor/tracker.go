package tutor

import (
	"sync"
	"time"

	"github.com/antoniostano/caissa/internal/policy"
)

const (
	emaWeight           = 0.9
	defaultAccuracy     = 0.5
	defaultResponseTime = 30.0
)

// PerformanceState is the rolling per-user performance record. Accuracy and
// response time are exponential moving averages; the streak resets on any
// incorrect outcome.
type PerformanceState struct {
	UserID          string    `json:"user_id"`
	Accuracy        float64   `json:"accuracy"`
	ResponseTime    float64   `json:"response_time"`
	Streak          int       `json:"streak"`
	DifficultyLevel float64   `json:"difficulty_level"`
	ImprovementRate float64   `json:"improvement_rate"`
	TotalAttempts   int       `json:"total_attempts"`
	CorrectAttempts int       `json:"correct_attempts"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func defaultState(userID string) PerformanceState {
	return PerformanceState{
		UserID:       userID,
		Accuracy:     defaultAccuracy,
		ResponseTime: defaultResponseTime,
	}
}

// StateStore is a keyed store of per-user performance state. Update must
// apply fn atomically with respect to other updates for the same user.
type StateStore interface {
	Get(userID string) (PerformanceState, bool)
	Update(userID string, fn func(*PerformanceState)) PerformanceState
}

// InMemoryStateStore keeps performance state in process memory.
type InMemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]*PerformanceState
}

func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{states: make(map[string]*PerformanceState)}
}

func (s *InMemoryStateStore) Get(userID string) (PerformanceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[userID]
	if !ok {
		return PerformanceState{}, false
	}
	return *st, true
}

func (s *InMemoryStateStore) Update(userID string, fn func(*PerformanceState)) PerformanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		d := defaultState(userID)
		st = &d
		s.states[userID] = st
	}
	fn(st)
	st.UpdatedAt = time.Now().UTC()
	return *st
}

// Tracker owns per-user rolling performance statistics.
type Tracker struct {
	store StateStore
}

func NewTracker(store StateStore) *Tracker {
	if store == nil {
		store = NewInMemoryStateStore()
	}
	return &Tracker{store: store}
}

// RecordOutcome folds one puzzle or move outcome into the user's state. The
// read-modify-write is atomic per user.
func (t *Tracker) RecordOutcome(userID string, correct bool, timeTaken float64) PerformanceState {
	return t.store.Update(userID, func(st *PerformanceState) {
		st.TotalAttempts++
		if correct {
			st.CorrectAttempts++
			st.Streak++
		} else {
			st.Streak = 0
		}

		observed := float64(st.CorrectAttempts) / float64(st.TotalAttempts)
		st.Accuracy = emaWeight*st.Accuracy + (1-emaWeight)*observed
		st.ResponseTime = emaWeight*st.ResponseTime + (1-emaWeight)*timeTaken
	})
}

// SetDifficulty records the difficulty of the material the user is currently
// being served, on a 0..1 scale.
func (t *Tracker) SetDifficulty(userID string, level float64) {
	t.store.Update(userID, func(st *PerformanceState) {
		st.DifficultyLevel = min(max(level, 0), 1)
	})
}

// State returns the user's performance record, or defaults for unknown users.
func (t *Tracker) State(userID string) PerformanceState {
	if st, ok := t.store.Get(userID); ok {
		return st
	}
	return defaultState(userID)
}

// StateVector builds the fixed-shape feature vector consumed by the policy.
// Response time is normalized against a one-minute ceiling and the streak
// against ten consecutive wins.
func (t *Tracker) StateVector(userID string) policy.State {
	st := t.State(userID)
	return policy.State{
		st.Accuracy,
		min(st.ResponseTime/60.0, 1.0),
		min(float64(st.Streak)/10.0, 1.0),
		st.DifficultyLevel,
		st.ImprovementRate,
	}
}
