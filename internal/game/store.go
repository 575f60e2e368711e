package game

import "context"

// Store persists game sessions. Persist is an upsert keyed by game ID; Load
// returns ErrNotFound for unknown games.
type Store interface {
	Persist(ctx context.Context, session *Session) error
	Load(ctx context.Context, gameID string) (*Session, error)
	List(ctx context.Context, userID string) ([]*Session, error)
	Close() error
}
