package entities

import "time"

// Reminder fires a notification for its owning event once RemindAt has passed.
type Reminder struct {
	ID       int64
	EventID  int64
	RemindAt time.Time
}

// DueReminder pairs a due reminder with the event it belongs to.
type DueReminder struct {
	Reminder Reminder
	Event    Event
}
