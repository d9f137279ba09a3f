// Package sessionmemory is a process-lifetime session repository. It backs
// single-node deployments and tests; multi-node deployments use the valkey
// repository instead.
package sessionmemory

import (
	"context"
	"sync"

	"github.com/tasteboard/tasteboard/internal/serviceerr"
	"github.com/tasteboard/tasteboard/internal/session"
)

type Repository struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

var _ = session.Repository(&Repository{})

func NewRepository() *Repository {
	return &Repository{
		sessions: make(map[string]session.Session),
	}
}

func (r *Repository) Load(_ context.Context, sessionID string) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return session.Session{}, serviceerr.ErrNotFound
	}

	return s, nil
}

func (r *Repository) Store(_ context.Context, s session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s

	return nil
}

func (r *Repository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)

	return nil
}

func (r *Repository) List(_ context.Context) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}

	return sessions, nil
}
