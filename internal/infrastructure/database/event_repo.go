package database

import (
	"context"
	"database/sql"
	"errors"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/output"
)

var _ output.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	q := r.db.rebind(`INSERT INTO events (chat_id, date, time, description, participants, message_link, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.sql.QueryRowContext(ctx, q,
		event.ChatID, event.Date, event.Time, event.Description,
		event.Participants, event.MessageLink, event.Status, r.db.timeArg(event.CreatedAt),
	).Scan(&event.ID)
	if err != nil {
		return domain.Persistence("create event", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (*entities.Event, error) {
	q := r.db.rebind(`SELECT ` + eventColumns + ` FROM events WHERE id = ?`)
	e, err := scanEvent(r.db.sql.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("event %d", id)
	}
	if err != nil {
		return nil, domain.Persistence("get event by id", err)
	}
	return &e, nil
}

// FindByDate returns the events of date ordered by time, then id.
func (r *EventRepository) FindByDate(ctx context.Context, date string) ([]entities.Event, error) {
	q := r.db.rebind(`SELECT ` + eventColumns + ` FROM events WHERE date = ? ORDER BY time, id`)
	rows, err := r.db.sql.QueryContext(ctx, q, date)
	if err != nil {
		return nil, domain.Persistence("list events by date", err)
	}
	defer rows.Close()

	events := []entities.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, domain.Persistence("scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list events by date", err)
	}
	return events, nil
}

// Delete removes the event and, by cascade, its reminders. Missing ids are not an error.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.sql.ExecContext(ctx, r.db.rebind(`DELETE FROM events WHERE id = ?`), id); err != nil {
		return domain.Persistence("delete event", err)
	}
	return nil
}
