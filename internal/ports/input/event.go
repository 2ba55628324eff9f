package input

import (
	"context"
	"time"

	"remindbot/internal/domain/entities"
)

// EventUseCase is the event store as seen by the rest of the application.
type EventUseCase interface {
	AddEvent(ctx context.Context, ev entities.NewEvent) (int64, error)
	GetEvent(ctx context.Context, id int64) (*entities.Event, error)
	GetEvents(ctx context.Context, date string) ([]entities.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	AddReminder(ctx context.Context, eventID int64, remindAt time.Time) (int64, error)
	GetUpcomingReminders(ctx context.Context, now time.Time) ([]entities.DueReminder, error)
	DeleteReminder(ctx context.Context, id int64) error
}
