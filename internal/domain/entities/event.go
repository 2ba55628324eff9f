package entities

import "time"

// Event is a persisted calendar entry. Date is YYYY-MM-DD and Time is HH:MM,
// both in the process timezone.
type Event struct {
	ID           int64
	ChatID       string
	Date         string
	Time         string
	Description  string
	Participants string
	MessageLink  string
	Status       string
	CreatedAt    time.Time
}

// NewEvent holds the fields accepted when creating an event.
type NewEvent struct {
	ChatID       string
	Date         string
	Time         string
	Description  string
	Participants string
	MessageLink  string
}

// StartsAt resolves Date and Time in loc. ok is false when either field is malformed.
func (e *Event) StartsAt(loc *time.Location) (t time.Time, ok bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
