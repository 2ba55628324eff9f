package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
	"remindbot/pkg/datetime"
)

var _ input.EventUseCase = (*EventService)(nil)

type EventService struct {
	eventRepo    output.EventRepository
	reminderRepo output.ReminderRepository
	locks        *keyLock
	now          func() time.Time
}

func NewEventService(
	eventRepo output.EventRepository,
	reminderRepo output.ReminderRepository,
) *EventService {
	return &EventService{
		eventRepo:    eventRepo,
		reminderRepo: reminderRepo,
		locks:        newKeyLock(),
		now:          time.Now,
	}
}

// AddEvent validates and stores a confirmed event. Date and time must both be
// present and well formed.
func (s *EventService) AddEvent(ctx context.Context, ev entities.NewEvent) (int64, error) {
	date := strings.TrimSpace(ev.Date)
	tod := strings.TrimSpace(ev.Time)
	if date == "" || tod == "" {
		return 0, domain.Validation("date and time are required")
	}
	if !datetime.ValidDate(date) {
		return 0, domain.Validation("date %q is not YYYY-MM-DD", date)
	}
	if !datetime.ValidTime(tod) {
		return 0, domain.Validation("time %q is not HH:MM", tod)
	}
	desc := strings.TrimSpace(ev.Description)
	if desc == "" {
		desc = domain.DefaultDescription
	}

	event := &entities.Event{
		ChatID:       ev.ChatID,
		Date:         date,
		Time:         tod,
		Description:  desc,
		Participants: strings.TrimSpace(ev.Participants),
		MessageLink:  strings.TrimSpace(ev.MessageLink),
		Status:       domain.StatusConfirmed,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return 0, err
	}
	return event.ID, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*entities.Event, error) {
	return s.eventRepo.FindByID(ctx, id)
}

// GetEvents returns the events of date ordered by time. No match is an empty slice.
func (s *EventService) GetEvents(ctx context.Context, date string) ([]entities.Event, error) {
	if !datetime.ValidDate(date) {
		return nil, domain.Validation("date %q is not YYYY-MM-DD", date)
	}
	events, err := s.eventRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []entities.Event{}
	}
	return events, nil
}

// DeleteEvent is idempotent; its reminders go with it.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(eventKey(id))
	defer unlock()
	return s.eventRepo.Delete(ctx, id)
}

func (s *EventService) AddReminder(ctx context.Context, eventID int64, remindAt time.Time) (int64, error) {
	if remindAt.IsZero() {
		return 0, domain.Validation("reminder time is required")
	}
	unlock := s.locks.Lock(eventKey(eventID))
	defer unlock()

	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return 0, err
	}
	r := &entities.Reminder{
		EventID:  eventID,
		RemindAt: remindAt.UTC().Truncate(time.Second),
	}
	if err := s.reminderRepo.Create(ctx, r); err != nil {
		return 0, err
	}
	return r.ID, nil
}

// GetUpcomingReminders returns reminders due at now, oldest first.
func (s *EventService) GetUpcomingReminders(ctx context.Context, now time.Time) ([]entities.DueReminder, error) {
	return s.reminderRepo.FindDue(ctx, now.UTC())
}

func (s *EventService) DeleteReminder(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(reminderKey(id))
	defer unlock()
	return s.reminderRepo.Delete(ctx, id)
}

func eventKey(id int64) string    { return fmt.Sprintf("event:%d", id) }
func reminderKey(id int64) string { return fmt.Sprintf("reminder:%d", id) }

// defaultReminderAt is lead before the event start, clamped to now. ok is
// false when no reminder applies: lead disabled, bad fields, or a past event.
func defaultReminderAt(date, tod string, loc *time.Location, lead time.Duration, now time.Time) (time.Time, bool) {
	if lead <= 0 {
		return time.Time{}, false
	}
	ev := entities.Event{Date: date, Time: tod}
	startsAt, ok := ev.StartsAt(loc)
	if !ok || !startsAt.After(now) {
		return time.Time{}, false
	}
	at := startsAt.Add(-lead)
	if at.Before(now) {
		at = now
	}
	return at, true
}
