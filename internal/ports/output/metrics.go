package output

import "time"

// Recorder receives operational measurements from the application layer.
type Recorder interface {
	EventCreated(source string)
	ProposalResolved(outcome string)
	ReminderDispatched()
	ReminderFailed()
	TickCompleted(d time.Duration, due int)
	CommandHandled(command, status string)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) EventCreated(string) {}
func (NopRecorder) ProposalResolved(string) {}
func (NopRecorder) ReminderDispatched() {}
func (NopRecorder) ReminderFailed() {}
func (NopRecorder) TickCompleted(time.Duration, int) {}
func (NopRecorder) CommandHandled(string, string) {}
