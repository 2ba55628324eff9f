package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/domain"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
)

const DefaultReminderInterval = 60 * time.Second

type SchedulerConfig struct {
	Interval time.Duration
	// Locale of the notification text.
	Locale string
}

// ReminderScheduler polls the store for due reminders and sends each one to
// the chat its event came from. A reminder is deleted only after the
// notification was accepted by the transport; failures are retried on the
// next tick. Ticks never overlap.
type ReminderScheduler struct {
	events     input.EventUseCase
	notifier   output.Notifier
	translator output.Translator
	recorder   output.Recorder
	logger     *slog.Logger

	cron     *cron.Cron
	interval time.Duration
	locale   string
	now      func() time.Time

	tickMu   sync.Mutex
	initial  sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewReminderScheduler(
	events input.EventUseCase,
	notifier output.Notifier,
	translator output.Translator,
	recorder output.Recorder,
	logger *slog.Logger,
	cfg SchedulerConfig,
) *ReminderScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReminderInterval
	}
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	logger = logger.With("component", "scheduler")
	cl := cronLogger{logger: logger}
	return &ReminderScheduler{
		events:     events,
		notifier:   notifier,
		translator: translator,
		recorder:   recorder,
		logger:     logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		interval: cfg.Interval,
		locale:   cfg.Locale,
		now:      time.Now,
		stopped:  make(chan struct{}),
	}
}

// Start runs one tick right away, to flush reminders that fell due while the
// process was down, then one every interval until ctx is done.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.Tick(ctx)
	}))
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "interval", s.interval)

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.Tick(ctx)
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop waits for the startup tick and any scheduled tick to finish. Safe to
// call multiple times.
func (s *ReminderScheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		s.initial.Wait()
		close(s.stopped)
		s.logger.Info("reminder scheduler stopped")
	})
}

// Done is closed once Stop has returned.
func (s *ReminderScheduler) Done() <-chan struct{} {
	return s.stopped
}

// Tick dispatches every due reminder and returns how many were delivered.
// Concurrent calls are serialized, so a reminder is never sent twice by
// overlapping ticks.
func (s *ReminderScheduler) Tick(ctx context.Context) int {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	due, err := s.events.GetUpcomingReminders(ctx, s.now())
	if err != nil {
		s.logger.Error("load due reminders", "error", err)
		return 0
	}

	sent := 0
	for _, d := range due {
		if ctx.Err() != nil {
			break
		}
		if d.Event.ChatID == "" {
			s.logger.Warn("reminder has no chat, dropping", "reminder_id", d.Reminder.ID, "event_id", d.Event.ID)
			s.deleteReminder(ctx, d.Reminder.ID)
			continue
		}

		text := s.translator.T(s.locale, "reminder.notification", map[string]any{
			"ID":          d.Event.ID,
			"Date":        d.Event.Date,
			"Time":        d.Event.Time,
			"Description": d.Event.Description,
		})
		if _, err := s.notifier.SendMessage(ctx, d.Event.ChatID, text); err != nil {
			s.recorder.ReminderFailed()
			s.logger.Warn("reminder not delivered, will retry",
				"reminder_id", d.Reminder.ID, "error", domain.Dispatch("send reminder", err))
			continue
		}
		s.recorder.ReminderDispatched()
		sent++
		s.deleteReminder(ctx, d.Reminder.ID)
	}

	s.recorder.TickCompleted(time.Since(start), len(due))
	if len(due) > 0 {
		s.logger.Info("reminder tick", "due", len(due), "sent", sent)
	}
	return sent
}

func (s *ReminderScheduler) deleteReminder(ctx context.Context, id int64) {
	if err := s.events.DeleteReminder(ctx, id); err != nil {
		// The reminder will be delivered again on the next tick.
		s.logger.Error("delete dispatched reminder", "reminder_id", id, "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
