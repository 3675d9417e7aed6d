package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository создаёт PostgreSQL-реализацию EventRepository.
func NewEventRepository(store *Store) domain.EventRepository {
	return &eventRepository{db: store.DB()}
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Start != nil {
		addCond("start >= $%d", *filter.Start)
	}
	if filter.Finish != nil {
		addCond("finish <= $%d", *filter.Finish)
	}
	switch filter.Filter {
	case domain.EventFilterFuture:
		addCond("start > $%d", time.Now().UTC())
	case domain.EventFilterPast:
		addCond("finish < $%d", time.Now().UTC())
	case domain.EventFilterOngoing:
		now := time.Now().UTC()
		addCond("start <= $%d", now)
		addCond("finish >= $%d", now)
	}

	query := `SELECT event_id, name, start, finish FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	switch filter.OrderBy {
	case domain.EventOrderStart:
		query += " ORDER BY start NULLS LAST"
	case domain.EventOrderFinish:
		query += " ORDER BY finish NULLS LAST"
	default:
		query += " ORDER BY name"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

func (r *eventRepository) Get(ctx context.Context, id string) (domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT event_id, name, start, finish FROM events WHERE event_id = $1
	`, id)

	return scanEvent(row)
}

func (r *eventRepository) Create(ctx context.Context, in domain.CreateEvent) (domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	event := domain.Event{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Start:  in.Start,
		Finish: in.Finish,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (event_id, name, start, finish) VALUES ($1, $2, $3, $4)
	`, event.ID, event.Name, event.Start, event.Finish)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Event{}, domain.ErrEventExists
		}
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return event, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, in domain.UpdateEvent) (domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		UPDATE events
		SET name = COALESCE($1, name),
		    start = COALESCE($2, start),
		    finish = COALESCE($3, finish)
		WHERE event_id = $4
		RETURNING event_id, name, start, finish
	`, in.Name, in.Start, in.Finish, id)

	event, err := scanEvent(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Event{}, domain.ErrEventExists
		}
		return domain.Event{}, err
	}

	return event, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE event_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrEventNotFound
	}

	return nil
}

func scanEvent(row rowScanner) (domain.Event, error) {
	var (
		event  domain.Event
		start  sql.NullTime
		finish sql.NullTime
	)
	if err := row.Scan(&event.ID, &event.Name, &start, &finish); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}
	if start.Valid {
		t := start.Time
		event.Start = &t
	}
	if finish.Valid {
		t := finish.Time
		event.Finish = &t
	}
	return event, nil
}

var _ domain.EventRepository = (*eventRepository)(nil)
