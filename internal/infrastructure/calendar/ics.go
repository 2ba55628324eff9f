package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/output"
)

var _ output.CalendarExporter = (*ICSExporter)(nil)

const (
	productID = "-//remindbot//EN"
	// Events carry no end time; exported entries last one hour.
	defaultDuration = time.Hour
)

// ICSExporter renders events as an iCalendar (RFC 5545) document.
type ICSExporter struct {
	now func() time.Time
}

func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

func (x *ICSExporter) ContentType() string { return "text/calendar" }

// Export renders events, resolving their date and time in loc. Events with a
// malformed date or time are skipped. UIDs are stable per event id.
func (x *ICSExporter) Export(events []entities.Event, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for i := range events {
		e := &events[i]
		start, ok := e.StartsAt(loc)
		if !ok {
			continue
		}
		stamp := e.CreatedAt
		if stamp.IsZero() {
			stamp = x.now()
		}

		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, EventUID(e.ID))
		ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		ev.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(defaultDuration).UTC())
		ev.Props.SetText(ical.PropSummary, e.Description)
		if e.Participants != "" {
			ev.Props.SetText(ical.PropDescription, "Participants: "+e.Participants)
		}
		if e.MessageLink != "" {
			ev.Props.SetText(ical.PropURL, e.MessageLink)
		}
		if e.Status == domain.StatusCancelled {
			ev.Props.SetText(ical.PropStatus, "CANCELLED")
		} else {
			ev.Props.SetText(ical.PropStatus, "CONFIRMED")
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// EventUID derives the iCalendar UID of an event from its id.
func EventUID(id int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("remindbot:event:%d", id))).String() + "@remindbot"
}
