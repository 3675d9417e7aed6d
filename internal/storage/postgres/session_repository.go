package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository создаёт PostgreSQL-реализацию SessionRepository.
func NewSessionRepository(store *Store) domain.SessionRepository {
	return &sessionRepository{db: store.DB()}
}

func (r *sessionRepository) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tokens WHERE user_id = $1 AND expires > $2
	`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active tokens: %w", err)
	}

	return count, nil
}

func (r *sessionRepository) Insert(ctx context.Context, session domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (value, user_id, expires) VALUES ($1, $2, $3)
	`, session.Value, session.UserID, session.Expires)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenCollision
		}
		return fmt.Errorf("insert token: %w", err)
	}

	return nil
}

func (r *sessionRepository) GetByValue(ctx context.Context, value string) (domain.User, domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		user    domain.User
		session domain.Session
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT u.user_id, u.username, t.value, t.user_id, t.expires
		FROM users u
		INNER JOIN tokens t ON u.user_id = t.user_id
		WHERE t.value = $1
	`, value).Scan(&user.ID, &user.Username, &session.Value, &session.UserID, &session.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.Session{}, domain.ErrInvalidToken
		}
		return domain.User{}, domain.Session{}, fmt.Errorf("select token: %w", err)
	}

	return user, session, nil
}

func (r *sessionRepository) DeleteByValue(ctx context.Context, value string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Отсутствие строки не ошибка: вызывающий держит значение из
	// успешного validate, повторный logout безопасен.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE value = $1`, value); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}

var _ domain.SessionRepository = (*sessionRepository)(nil)
