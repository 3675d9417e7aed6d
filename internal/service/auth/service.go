package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/metrics"
)

const (
	// tokenTTL — срок действия выданного токена.
	tokenTTL = 10 * time.Hour
	// maxActiveSessions — максимум действительных токенов на пользователя.
	maxActiveSessions = 5
	// tokenBytes — размер случайной части токена до hex-кодирования.
	tokenBytes = 32
	// maxInsertAttempts ограничивает повторную генерацию при коллизии
	// значения токена. Исчерпание закрывает операцию ошибкой, токен с
	// чужим значением не выдаётся никогда.
	maxInsertAttempts = 5
)

// Service — Session Authority: выдача, проверка и отзыв bearer-токенов.
type Service struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	metrics  *metrics.LedgerMetrics
	logger   *log.Entry

	// now подменяется в тестах для проверки истечения.
	now func() time.Time
}

// NewService создаёт Session Authority.
func NewService(users domain.UserRepository, sessions domain.SessionRepository, m *metrics.LedgerMetrics) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		metrics:  m,
		logger:   log.WithField("component", "auth-service"),
		now:      time.Now,
	}
}

// Login проверяет пару username/password и выдаёт новый токен.
// Ошибки: ErrInvalidCredentials, ErrSessionLimitExceeded.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	user, creds, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordLoginFailure()
			return domain.Session{}, domain.ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !verifyPassword(password, creds) {
		s.recordLoginFailure()
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	// Считаются только действительные токены: истёкшие строки не
	// блокируют новый логин, даже если их никто не удалял.
	active, err := s.sessions.CountActive(ctx, user.ID, now)
	if err != nil {
		return domain.Session{}, fmt.Errorf("count active sessions: %w", err)
	}
	if active >= maxActiveSessions {
		s.logger.WithFields(log.Fields{
			"user_id": user.ID,
			"active":  active,
		}).Warn("session limit exceeded")
		return domain.Session{}, domain.ErrSessionLimitExceeded
	}

	session := domain.Session{
		UserID:  user.ID,
		Expires: now.Add(tokenTTL),
	}
	for attempt := 1; ; attempt++ {
		session.Value, err = newTokenValue()
		if err != nil {
			return domain.Session{}, err
		}
		err = s.sessions.Insert(ctx, session)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrTokenCollision) {
			return domain.Session{}, fmt.Errorf("insert session: %w", err)
		}
		if attempt >= maxInsertAttempts {
			s.logger.WithField("user_id", user.ID).Error("token collision retries exhausted")
			return domain.Session{}, fmt.Errorf("issue token: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}
	s.logger.WithField("user_id", user.ID).Debug("token issued")
	return session, nil
}

// Authenticate возвращает владельца токена. Истёкший или неизвестный
// токен неразличимы для вызывающего: оба дают ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, value string) (domain.User, domain.Session, error) {
	if value == "" {
		return domain.User{}, domain.Session{}, domain.ErrInvalidToken
	}

	user, session, err := s.sessions.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return domain.User{}, domain.Session{}, err
		}
		return domain.User{}, domain.Session{}, fmt.Errorf("lookup session: %w", err)
	}
	if session.ExpiredAt(s.now().UTC()) {
		return domain.User{}, domain.Session{}, domain.ErrInvalidToken
	}

	return user, session, nil
}

// Logout отзывает один токен. Операция идемпотентна: вызывающий уже
// прошёл Authenticate, повторный отзыв ничем не грозит.
func (s *Service) Logout(ctx context.Context, value string) error {
	if err := s.sessions.DeleteByValue(ctx, value); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSessionClosed()
	}
	return nil
}

// LogoutAll отзывает все токены пользователя.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	s.logger.WithField("user_id", userID).Debug("all sessions revoked")
	return nil
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}

// newTokenValue возвращает hex от tokenBytes случайных байт.
func newTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
