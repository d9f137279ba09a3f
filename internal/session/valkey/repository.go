// Package sessionvalkey persists session records in valkey. Records are
// written as one JSON blob per session with a TTL matching the record expiry,
// so the store itself drops abandoned sessions.
package sessionvalkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/tasteboard/tasteboard/internal/session"
)

const objectTypeSession = "session"

var (
	ErrGetSession   = errors.New("getting session from store")
	ErrGetSessions  = errors.New("getting sessions from store")
	ErrStoreSession = errors.New("setting session into storage")
)

type Repository struct {
	store *store
}

var _ = session.Repository(&Repository{})

func NewRepository(valkeyClient valkey.Client, prefix string) *Repository {
	return &Repository{
		store: newStore(valkeyClient, prefix),
	}
}

func (r *Repository) Load(ctx context.Context, sessionID string) (session.Session, error) {
	var s session.Session
	if err := r.store.Get(ctx, objectTypeSession, sessionID, &s); err != nil {
		return session.Session{}, errors.Join(ErrGetSession, err)
	}

	return s, nil
}

func (r *Repository) Store(ctx context.Context, s session.Session) error {
	if err := r.store.Set(ctx, objectTypeSession, s.ID, s, time.Until(s.Expiry)); err != nil {
		return errors.Join(ErrStoreSession, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Destroy(ctx, objectTypeSession, sessionID); err != nil {
		return fmt.Errorf("deleting session from store: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context) ([]session.Session, error) {
	var sessions []session.Session
	if err := getStoreObjects(ctx, r.store, objectTypeSession, "*", &sessions); err != nil {
		return nil, errors.Join(ErrGetSessions, err)
	}

	return sessions, nil
}
