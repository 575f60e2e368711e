package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/antoniostano/caissa/internal/tutor"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeAnalyzeMove   MessageType = "analyze_move"
	TypeReportOutcome MessageType = "report_outcome"
	TypeMoveAnalysis  MessageType = "move_analysis"
	TypeTutorAction   MessageType = "tutor_action"
	TypeErrorEvent    MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// AnalyzeMove asks for realtime tutoring feedback on one move.
type AnalyzeMove struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id"`
	FEN    string      `json:"fen"`
	Move   string      `json:"move"`
}

// ReportOutcome feeds a puzzle or drill result into the tutoring loop.
type ReportOutcome struct {
	Type       MessageType `json:"type"`
	UserID     string      `json:"user_id"`
	Correct    bool        `json:"correct"`
	TimeTaken  float64     `json:"time_taken"`
	Difficulty float64     `json:"difficulty"`
}

// MoveAnalysis carries the tutoring verdict back to the client.
type MoveAnalysis struct {
	Type     MessageType        `json:"type"`
	UserID   string             `json:"user_id"`
	Analysis tutor.MoveAnalysis `json:"analysis"`
}

// TutorAction reports the policy's decision for a reported outcome.
type TutorAction struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id"`
	Action string      `json:"action"`
	Tier   string      `json:"tier"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeAnalyzeMove:
		var msg AnalyzeMove
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.UserID == "" || msg.FEN == "" || msg.Move == "" {
			return nil, errors.New("invalid analyze_move")
		}
		return msg, nil
	case TypeReportOutcome:
		var msg ReportOutcome
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.UserID == "" || msg.TimeTaken < 0 {
			return nil, errors.New("invalid report_outcome")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
