package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (domain.User, domain.UserCredentials, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		user  domain.User
		creds domain.UserCredentials
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, password, salt FROM users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &creds.Digest, &creds.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.UserCredentials{}, domain.ErrUserNotFound
		}
		return domain.User{}, domain.UserCredentials{}, fmt.Errorf("select user: %w", err)
	}

	return user, creds, nil
}

func (r *userRepository) Create(ctx context.Context, username string, creds domain.UserCredentials) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user := domain.User{ID: uuid.NewString(), Username: username}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, password, salt) VALUES ($1, $2, $3, $4)
	`, user.ID, username, creds.Digest, creds.Salt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, id string, username *string, creds *domain.UserCredentials) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var digest, salt []byte
	if creds != nil {
		digest = creds.Digest
		salt = creds.Salt
	}

	var user domain.User
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = COALESCE($1, username),
		    password = COALESCE($2, password),
		    salt = COALESCE($3, salt)
		WHERE user_id = $4
		RETURNING user_id, username
	`, username, digest, salt, id).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

var _ domain.UserRepository = (*userRepository)(nil)
