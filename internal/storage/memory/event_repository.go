package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// eventRepositoryInMemory — простая in-memory реализация EventRepository.
type eventRepositoryInMemory struct {
	store *Store
}

func (r *eventRepositoryInMemory) List(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	now := time.Now().UTC()
	result := make([]domain.Event, 0, len(r.store.events))
	for _, event := range r.store.events {
		if !matchEvent(event, filter, now) {
			continue
		}
		result = append(result, event)
	}

	sort.Slice(result, func(i, j int) bool {
		switch filter.OrderBy {
		case domain.EventOrderStart:
			return lessTimePtr(result[i].Start, result[j].Start)
		case domain.EventOrderFinish:
			return lessTimePtr(result[i].Finish, result[j].Finish)
		default:
			return result[i].Name < result[j].Name
		}
	})
	return result, nil
}

func matchEvent(event domain.Event, filter domain.EventFilter, now time.Time) bool {
	if filter.Start != nil && (event.Start == nil || event.Start.Before(*filter.Start)) {
		return false
	}
	if filter.Finish != nil && (event.Finish == nil || event.Finish.After(*filter.Finish)) {
		return false
	}
	switch filter.Filter {
	case domain.EventFilterFuture:
		return event.Start != nil && event.Start.After(now)
	case domain.EventFilterPast:
		return event.Finish != nil && event.Finish.Before(now)
	case domain.EventFilterOngoing:
		return event.Start != nil && event.Finish != nil &&
			!event.Start.After(now) && !event.Finish.Before(now)
	}
	return true
}

// lessTimePtr сортирует nil-значения в конец, как NULLS LAST.
func lessTimePtr(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func (r *eventRepositoryInMemory) Get(_ context.Context, id string) (domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	event, ok := r.store.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (r *eventRepositoryInMemory) Create(_ context.Context, in domain.CreateEvent) (domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, event := range r.store.events {
		if event.Name == in.Name {
			return domain.Event{}, domain.ErrEventExists
		}
	}
	event := domain.Event{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Start:  in.Start,
		Finish: in.Finish,
	}
	r.store.events[event.ID] = event
	return event, nil
}

func (r *eventRepositoryInMemory) Update(_ context.Context, id string, in domain.UpdateEvent) (domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if in.Name != nil {
		for otherID, other := range r.store.events {
			if otherID != id && other.Name == *in.Name {
				return domain.Event{}, domain.ErrEventExists
			}
		}
		event.Name = *in.Name
	}
	if in.Start != nil {
		start := *in.Start
		event.Start = &start
	}
	if in.Finish != nil {
		finish := *in.Finish
		event.Finish = &finish
	}
	r.store.events[id] = event
	return event, nil
}

func (r *eventRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.store.events, id)
	return nil
}

var _ domain.EventRepository = (*eventRepositoryInMemory)(nil)
