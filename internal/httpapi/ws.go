package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/caissa/internal/protocol"
)

// handleTutorWS serves realtime move analysis. One writer goroutine owns the
// connection's writes; the read loop parses client envelopes and feeds the
// tutoring service.
func (s *Server) handleTutorWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.countWS("outbound", t)
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.send(ctx, outbound, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.countWS("inbound", t)
		}

		switch msg := parsed.(type) {
		case protocol.AnalyzeMove:
			analysis, err := s.tutor.AnalyzeMove(ctx, msg.UserID, msg.FEN, msg.Move)
			if err != nil {
				s.send(ctx, outbound, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					Code:      "analysis_failed",
					Retryable: true,
					Detail:    err.Error(),
				})
				continue
			}
			s.send(ctx, outbound, protocol.MoveAnalysis{
				Type:     protocol.TypeMoveAnalysis,
				UserID:   msg.UserID,
				Analysis: analysis,
			})
		case protocol.ReportOutcome:
			action := s.tutor.ReportOutcome(msg.UserID, msg.Correct, msg.TimeTaken, msg.Difficulty)
			s.send(ctx, outbound, protocol.TutorAction{
				Type:   protocol.TypeTutorAction,
				UserID: msg.UserID,
				Action: action.String(),
				Tier:   string(s.tutor.SelectPuzzleTier(msg.UserID)),
			})
		}

		if ctx.Err() != nil {
			break
		}
	}

	cancel()
	<-writerDone
}

// send queues a message for the writer, dropping it if the queue is full so
// websocket writes stay single-threaded.
func (s *Server) send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	default:
	}
}

func (s *Server) countWS(direction string, t protocol.MessageType) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, string(t)).Inc()
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.AnalyzeMove:
		return m.Type, true
	case protocol.ReportOutcome:
		return m.Type, true
	case protocol.MoveAnalysis:
		return m.Type, true
	case protocol.TutorAction:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
