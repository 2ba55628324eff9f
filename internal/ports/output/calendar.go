package output

import (
	"time"

	"remindbot/internal/domain/entities"
)

// CalendarExporter renders events as a calendar file.
type CalendarExporter interface {
	Export(events []entities.Event, loc *time.Location) ([]byte, error)
	ContentType() string
}
