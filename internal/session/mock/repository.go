package sessionmock

import (
	"context"

	"github.com/tasteboard/tasteboard/internal/serviceerr"
	"github.com/tasteboard/tasteboard/internal/session"
)

// Repository is an in-memory session.Repository for tests, with injectable
// errors per operation.
type Repository struct {
	Sessions map[string]session.Session

	loadErr, storeErr, deleteErr, listErr error
}

var _ = session.Repository(&Repository{})

func NewInMemRepository(loadErr, storeErr, deleteErr, listErr error) *Repository {
	return &Repository{
		Sessions:  make(map[string]session.Session),
		loadErr:   loadErr,
		storeErr:  storeErr,
		deleteErr: deleteErr,
		listErr:   listErr,
	}
}

func (r *Repository) Load(_ context.Context, sessionID string) (session.Session, error) {
	if r.loadErr != nil {
		return session.Session{}, r.loadErr
	}

	if s, ok := r.Sessions[sessionID]; ok {
		return s, nil
	}

	return session.Session{}, serviceerr.ErrNotFound
}

func (r *Repository) Store(_ context.Context, s session.Session) error {
	if r.storeErr != nil {
		return r.storeErr
	}

	r.Sessions[s.ID] = s

	return nil
}

func (r *Repository) Delete(_ context.Context, sessionID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}

	delete(r.Sessions, sessionID)

	return nil
}

func (r *Repository) List(_ context.Context) ([]session.Session, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}

	sessions := make([]session.Session, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		sessions = append(sessions, s)
	}

	return sessions, nil
}
