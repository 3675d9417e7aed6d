package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// OutboxRepository — in-memory реализация transactional outbox.
// Тип экспортирован ради тестовых хелперов AllPending/StatusOf.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository создаёт outbox поверх собственного хранилища.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{store: NewStore()}
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его идентификатор.
func (r *OutboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.store.outbox[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    "pending",
		createdAt: now,
		updatedAt: now,
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending`
// в порядке постановки.
func (r *OutboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := make([]*outboxRecord, 0, len(r.store.outbox))
	for _, rec := range r.store.outbox {
		if rec.status == "pending" {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].createdAt.Equal(pending[j].createdAt) {
			return pending[i].createdAt.Before(pending[j].createdAt)
		}
		return pending[i].msg.ID < pending[j].msg.ID
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

// Stats возвращает размер backlog и возраст самого старого сообщения.
func (r *OutboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range r.store.outbox {
		if rec.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *OutboxRepository) MarkSent(_ context.Context, id string) error {
	return r.markStatus(id, "sent")
}

// MarkFailed фиксирует ошибку публикации.
func (r *OutboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.markStatus(id, "failed")
}

func (r *OutboxRepository) markStatus(id, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.outbox[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	rec.status = status
	rec.attemptCnt++
	rec.updatedAt = time.Now().UTC()
	return nil
}

// AllPending возвращает копию всех сообщений со статусом `pending`
// (используется в тестах).
func (r *OutboxRepository) AllPending() []domain.OutboxMessage {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.OutboxMessage, 0, len(r.store.outbox))
	for _, rec := range r.store.outbox {
		if rec.status == "pending" {
			result = append(result, rec.msg)
		}
	}
	return result
}

// StatusOf возвращает текущий статус сообщения (используется в тестах).
func (r *OutboxRepository) StatusOf(id string) (string, bool) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.outbox[id]
	if !ok {
		return "", false
	}
	return rec.status, true
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
