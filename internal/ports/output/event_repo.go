package output

import (
	"context"
	"time"

	"remindbot/internal/domain/entities"
)

// EventRepository persists events. Implementations return domain persistence
// errors on storage failure and domain.ErrNotFound from FindByID.
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	FindByID(ctx context.Context, id int64) (*entities.Event, error)
	FindByDate(ctx context.Context, date string) ([]entities.Event, error)
	Delete(ctx context.Context, id int64) error
}

// ReminderRepository persists reminders. Deleting an event cascades to its reminders.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *entities.Reminder) error
	FindDue(ctx context.Context, now time.Time) ([]entities.DueReminder, error)
	Delete(ctx context.Context, id int64) error
}

// MessageRepository is the append-only chat log.
type MessageRepository interface {
	Append(ctx context.Context, msg *entities.Message) error
	FindSince(ctx context.Context, chatID string, since time.Time) ([]entities.Message, error)
}
