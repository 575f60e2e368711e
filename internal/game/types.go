package game

import (
	"errors"
	"time"
)

// StartingFEN is the standard chess initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrCompleted = errors.New("game already completed")
)

// Participant is one side of a game: either a human identified by UserID or
// an automated opponent playing at a strength level.
type Participant struct {
	UserID    string `json:"user_id,omitempty"`
	Automated bool   `json:"automated"`
	Level     int    `json:"level,omitempty"`
}

// AnalysisRecord captures one accepted ply.
type AnalysisRecord struct {
	Ply        int       `json:"ply"`
	Color      string    `json:"color"`
	Move       string    `json:"move"`
	Automated  bool      `json:"automated"`
	Position   string    `json:"position"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Session is one game's full record. Positions always holds one more entry
// than Moves: the position before the first move plus the position after each
// accepted ply. Analyses tracks Moves one to one.
type Session struct {
	ID        string           `json:"game_id"`
	White     Participant      `json:"white"`
	Black     Participant      `json:"black"`
	Status    Status           `json:"status"`
	Moves     []string         `json:"moves"`
	Positions []string         `json:"positions"`
	Analyses  []AnalysisRecord `json:"analyses"`
	Result    string           `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CurrentFEN is the latest position.
func (s *Session) CurrentFEN() string {
	return s.Positions[len(s.Positions)-1]
}

// WhiteToMove reports whose turn it is. The ply index equals the number of
// accepted moves; even means white.
func (s *Session) WhiteToMove() bool {
	return len(s.Moves)%2 == 0
}

// ToMove returns the participant whose turn it is and its color name.
func (s *Session) ToMove() (Participant, string) {
	if s.WhiteToMove() {
		return s.White, "white"
	}
	return s.Black, "black"
}

// PlyRecord is the committed outcome of one applied move.
type PlyRecord struct {
	Move     string `json:"move"`
	Position string `json:"position"`
	Color    string `json:"color"`
}

// MoveResult is the outcome of one submit: the initiating move's verdict, the
// automated reply when one was played, and the post-move game state.
type MoveResult struct {
	Accepted       bool       `json:"accepted"`
	Reason         string     `json:"rejection_reason,omitempty"`
	Played         *PlyRecord `json:"played,omitempty"`
	AutomatedReply *PlyRecord `json:"automated_reply,omitempty"`
	Terminal       bool       `json:"terminal"`
	Result         string     `json:"result,omitempty"`
	Session        *Session   `json:"game"`
}

func cloneSession(s *Session) *Session {
	c := *s
	c.Moves = append([]string(nil), s.Moves...)
	c.Positions = append([]string(nil), s.Positions...)
	c.Analyses = append([]AnalysisRecord(nil), s.Analyses...)
	return &c
}
