package domain

import "time"

// Event — торговое событие (ярмарка, акция), к которому может быть
// привязана транзакция. Границы времени опциональны.
type Event struct {
	ID     string
	Name   string
	Start  *time.Time
	Finish *time.Time
}

// EventTimeFilter ограничивает выборку относительно текущего момента.
type EventTimeFilter string

const (
	EventFilterFuture  EventTimeFilter = "future"
	EventFilterPast    EventTimeFilter = "past"
	EventFilterOngoing EventTimeFilter = "ongoing"
)

// EventOrder задаёт сортировку списка событий.
type EventOrder string

const (
	EventOrderName   EventOrder = "name"
	EventOrderStart  EventOrder = "start"
	EventOrderFinish EventOrder = "finish"
)

// EventFilter — конъюнктивные фильтры списка событий.
type EventFilter struct {
	Start   *time.Time
	Finish  *time.Time
	Filter  EventTimeFilter
	OrderBy EventOrder
}

// CreateEvent — входные данные создания события.
type CreateEvent struct {
	Name   string
	Start  *time.Time
	Finish *time.Time
}

// Validate проверяет, что finish не раньше start.
func (c CreateEvent) Validate() error {
	return validateEventRange(c.Start, c.Finish)
}

// UpdateEvent — частичное обновление события; nil-поля не меняются.
type UpdateEvent struct {
	Name   *string
	Start  *time.Time
	Finish *time.Time
}

// Validate проверяет согласованность заданных границ.
func (u UpdateEvent) Validate() error {
	return validateEventRange(u.Start, u.Finish)
}

func validateEventRange(start, finish *time.Time) error {
	if start != nil && finish != nil && finish.Before(*start) {
		return ErrEventRangeInvalid
	}
	return nil
}
