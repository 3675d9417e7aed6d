package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// userRepositoryInMemory — простая in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	store *Store
}

func (r *userRepositoryInMemory) GetByUsername(_ context.Context, username string) (domain.User, domain.UserCredentials, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, rec := range r.store.users {
		if rec.user.Username == username {
			return rec.user, rec.creds, nil
		}
	}
	return domain.User{}, domain.UserCredentials{}, domain.ErrUserNotFound
}

func (r *userRepositoryInMemory) Create(_ context.Context, username string, creds domain.UserCredentials) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.users {
		if rec.user.Username == username {
			return domain.User{}, domain.ErrUserExists
		}
	}

	user := domain.User{ID: uuid.NewString(), Username: username}
	r.store.users[user.ID] = userRecord{user: user, creds: creds}
	return user, nil
}

func (r *userRepositoryInMemory) Update(_ context.Context, id string, username *string, creds *domain.UserCredentials) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if username != nil {
		for otherID, other := range r.store.users {
			if otherID != id && other.user.Username == *username {
				return domain.User{}, domain.ErrUserExists
			}
		}
		rec.user.Username = *username
	}
	if creds != nil {
		rec.creds = *creds
	}
	r.store.users[id] = rec
	return rec.user, nil
}

func (r *userRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store.users, id)
	// Каскад, как ON DELETE CASCADE в схеме: токены умирают с пользователем.
	for value, session := range r.store.sessions {
		if session.UserID == id {
			delete(r.store.sessions, value)
		}
	}
	return nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
