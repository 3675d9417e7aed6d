package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// sessionRepositoryInMemory — простая in-memory реализация SessionRepository.
type sessionRepositoryInMemory struct {
	store *Store
}

func (r *sessionRepositoryInMemory) CountActive(_ context.Context, userID string, now time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, session := range r.store.sessions {
		if session.UserID == userID && !session.ExpiredAt(now) {
			count++
		}
	}
	return count, nil
}

func (r *sessionRepositoryInMemory) Insert(_ context.Context, session domain.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.sessions[session.Value]; exists {
		return domain.ErrTokenCollision
	}
	r.store.sessions[session.Value] = session
	return nil
}

func (r *sessionRepositoryInMemory) GetByValue(_ context.Context, value string) (domain.User, domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, ok := r.store.sessions[value]
	if !ok {
		return domain.User{}, domain.Session{}, domain.ErrInvalidToken
	}
	rec, ok := r.store.users[session.UserID]
	if !ok {
		return domain.User{}, domain.Session{}, domain.ErrInvalidToken
	}
	return rec.user, session, nil
}

func (r *sessionRepositoryInMemory) DeleteByValue(_ context.Context, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.sessions, value)
	return nil
}

func (r *sessionRepositoryInMemory) DeleteByUser(_ context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for value, session := range r.store.sessions {
		if session.UserID == userID {
			delete(r.store.sessions, value)
		}
	}
	return nil
}

var _ domain.SessionRepository = (*sessionRepositoryInMemory)(nil)
