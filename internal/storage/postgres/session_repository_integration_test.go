package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

func TestSessionRepository_Lifecycle_Integration(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	user := createIntegrationTestUser(t, store, "cashier")
	sessions := NewSessionRepository(store)
	now := time.Now().UTC()

	session := domain.Session{Value: "tok-1", UserID: user.ID, Expires: now.Add(time.Hour)}
	if err := sessions.Insert(ctx, session); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	// Повторная вставка того же значения — коллизия.
	if err := sessions.Insert(ctx, session); !errors.Is(err, domain.ErrTokenCollision) {
		t.Fatalf("expected ErrTokenCollision, got %v", err)
	}

	// Истёкший токен хранится, но не считается активным.
	expired := domain.Session{Value: "tok-2", UserID: user.ID, Expires: now.Add(-time.Hour)}
	if err := sessions.Insert(ctx, expired); err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	active, err := sessions.CountActive(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if active != 1 {
		t.Errorf("expected 1 active session, got %d", active)
	}

	owner, got, err := sessions.GetByValue(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get by value: %v", err)
	}
	if owner.ID != user.ID || got.UserID != user.ID {
		t.Errorf("unexpected session owner: %s", owner.ID)
	}

	if err := sessions.DeleteByValue(ctx, "tok-1"); err != nil {
		t.Fatalf("delete by value: %v", err)
	}
	if _, _, err := sessions.GetByValue(ctx, "tok-1"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after delete, got %v", err)
	}

	if err := sessions.DeleteByUser(ctx, user.ID); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if _, _, err := sessions.GetByValue(ctx, "tok-2"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after delete-all, got %v", err)
	}
}

func TestUserRepository_CascadeDeletesSessions_Integration(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	user := createIntegrationTestUser(t, store, "cashier")
	sessions := NewSessionRepository(store)
	if err := sessions.Insert(ctx, domain.Session{
		Value:   "tok-1",
		UserID:  user.ID,
		Expires: time.Now().UTC().Add(time.Hour),
	}); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	if err := NewUserRepository(store).Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, _, err := sessions.GetByValue(ctx, "tok-1"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected session removed with user, got %v", err)
	}
}
