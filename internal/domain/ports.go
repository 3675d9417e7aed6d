package domain

import (
	"context"
	"time"
)

// UserRepository хранит пользователей и их учётные данные.
type UserRepository interface {
	// GetByUsername возвращает пользователя и производные пароля для
	// сверки при логине; ErrUserNotFound, если такого username нет.
	GetByUsername(ctx context.Context, username string) (User, UserCredentials, error)
	Create(ctx context.Context, username string, creds UserCredentials) (User, error)
	// Update меняет только заданные поля; creds == nil оставляет пароль.
	Update(ctx context.Context, id string, username *string, creds *UserCredentials) (User, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository хранит bearer-токены.
type SessionRepository interface {
	// CountActive возвращает число токенов пользователя, не истёкших
	// на момент now. Истёкшие строки не удаляются, только игнорируются.
	CountActive(ctx context.Context, userID string, now time.Time) (int, error)
	// Insert сохраняет токен; ErrTokenCollision при совпадении значения.
	Insert(ctx context.Context, session Session) error
	// GetByValue возвращает владельца и метаданные токена независимо от
	// срока действия; ErrInvalidToken, если строки нет.
	GetByValue(ctx context.Context, value string) (User, Session, error)
	// DeleteByValue удаляет один токен; отсутствие строки не ошибка.
	DeleteByValue(ctx context.Context, value string) error
	// DeleteByUser удаляет все токены пользователя.
	DeleteByUser(ctx context.Context, userID string) error
}

// TransactionLedger — атомарный журнал транзакций. Каждая мутирующая
// операция выполняется как одна неделимая единица против хранилища:
// либо фиксируются все списания/вставки, либо ни одно.
type TransactionLedger interface {
	// Create списывает остатки по каждой позиции, вставляет заголовок и
	// продажи. Ошибки: ErrProductNotFound, InsufficientStockError,
	// ErrEventNotFound; любая из них откатывает операцию целиком.
	Create(ctx context.Context, userID string, in CreateTransaction) (Transaction, error)
	Get(ctx context.Context, id string) (Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	// Update применяет patch заголовка, удаляет все продажи (возвращая
	// остатки, если force == false) и применяет новые позиции.
	Update(ctx context.Context, id string, in UpdateTransaction, force bool) (Transaction, error)
	// Delete удаляет продажи и заголовок; returnProducts управляет
	// возвратом остатков на склад.
	Delete(ctx context.Context, id string, returnProducts bool) error
}

// ProductRepository — CRUD товаров и ссылка на изображение.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, in CreateProduct) (Product, error)
	Update(ctx context.Context, id string, in UpdateProduct) (Product, error)
	Delete(ctx context.Context, id string) error
	// SetImage записывает публичный URL изображения (nil — очистить).
	SetImage(ctx context.Context, id string, url *string) error
}

// CategoryRepository — CRUD категорий.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (Category, error)
	Create(ctx context.Context, name string) (Category, error)
	Update(ctx context.Context, id, name string) (Category, error)
	Delete(ctx context.Context, id string) error
}

// EventRepository — CRUD событий.
type EventRepository interface {
	List(ctx context.Context, filter EventFilter) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Create(ctx context.Context, in CreateEvent) (Event, error)
	Update(ctx context.Context, id string, in UpdateEvent) (Event, error)
	Delete(ctx context.Context, id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(msg OutboxMessage) error
}
