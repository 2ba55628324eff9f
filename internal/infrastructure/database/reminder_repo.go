package database

import (
	"context"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/output"
)

var _ output.ReminderRepository = (*ReminderRepository)(nil)

type ReminderRepository struct {
	db *DB
}

func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *entities.Reminder) error {
	q := r.db.rebind(`INSERT INTO reminders (event_id, remind_at) VALUES (?, ?) RETURNING id`)
	err := r.db.sql.QueryRowContext(ctx, q, reminder.EventID, r.db.timeArg(reminder.RemindAt)).Scan(&reminder.ID)
	if err != nil {
		return domain.Persistence("create reminder", err)
	}
	return nil
}

// FindDue returns reminders with remind_at <= now joined with their event,
// oldest first.
func (r *ReminderRepository) FindDue(ctx context.Context, now time.Time) ([]entities.DueReminder, error) {
	q := r.db.rebind(`SELECT r.id, r.event_id, r.remind_at,
		e.id, e.chat_id, e.date, e.time, e.description, e.participants, e.message_link, e.status, e.created_at
		FROM reminders r
		JOIN events e ON e.id = r.event_id
		WHERE r.remind_at <= ?
		ORDER BY r.remind_at, r.id`)
	rows, err := r.db.sql.QueryContext(ctx, q, r.db.timeArg(now))
	if err != nil {
		return nil, domain.Persistence("list due reminders", err)
	}
	defer rows.Close()

	var due []entities.DueReminder
	for rows.Next() {
		var (
			d                 entities.DueReminder
			remindAt, created dbTime
		)
		err := rows.Scan(&d.Reminder.ID, &d.Reminder.EventID, &remindAt,
			&d.Event.ID, &d.Event.ChatID, &d.Event.Date, &d.Event.Time, &d.Event.Description,
			&d.Event.Participants, &d.Event.MessageLink, &d.Event.Status, &created)
		if err != nil {
			return nil, domain.Persistence("scan due reminder", err)
		}
		d.Reminder.RemindAt = remindAt.Time
		d.Event.CreatedAt = created.Time
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list due reminders", err)
	}
	return due, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.sql.ExecContext(ctx, r.db.rebind(`DELETE FROM reminders WHERE id = ?`), id); err != nil {
		return domain.Persistence("delete reminder", err)
	}
	return nil
}
