package session

import "context"

// Repository persists session records keyed by session ID. Store replaces the
// whole record in one write; readers never observe a half-written record.
type Repository interface {
	Load(ctx context.Context, sessionID string) (Session, error)
	Store(ctx context.Context, session Session) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]Session, error)
}
