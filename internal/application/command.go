package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/domain"
	"remindbot/internal/domain/entities"
	"remindbot/internal/ports/input"
	"remindbot/internal/ports/output"
	"remindbot/pkg/datetime"
	"remindbot/pkg/people"
)

var _ input.CommandRouter = (*CommandService)(nil)

// Event sources reported to the metrics recorder.
const (
	SourceCommand  = "command"
	SourceProposal = "proposal"
)

// Canonical command verbs.
const (
	CmdAdd       = "add"
	CmdDelete    = "delete"
	CmdShow      = "show"
	CmdRemind    = "remind"
	CmdSummarize = "summarize"
	CmdExport    = "export"
	CmdHelp      = "help"
)

// Commands lists the canonical verbs in help order.
var Commands = []string{CmdAdd, CmdDelete, CmdShow, CmdRemind, CmdSummarize, CmdExport, CmdHelp}

var commandAliases = map[string]string{
	"add": CmdAdd, "добавить": CmdAdd,
	"delete": CmdDelete, "удалить": CmdDelete,
	"show": CmdShow, "показать": CmdShow,
	"remind": CmdRemind, "напомнить": CmdRemind,
	"summarize": CmdSummarize, "пересказать": CmdSummarize,
	"export": CmdExport, "экспорт": CmdExport,
	"help": CmdHelp, "помощь": CmdHelp,
}

// Canonical maps a verb or one of its localized aliases to the canonical verb.
// A leading "/" or "!" and a trailing "@botname" are ignored.
func Canonical(verb string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(verb))
	v = strings.TrimLeft(v, "/!")
	if i := strings.IndexByte(v, '@'); i >= 0 {
		v = v[:i]
	}
	c, ok := commandAliases[v]
	return c, ok
}

// SplitCommand splits "/verb args..." into its verb and argument string.
func SplitCommand(text string) (verb, args string) {
	text = strings.TrimSpace(text)
	verb, args, _ = strings.Cut(text, " ")
	return verb, strings.TrimSpace(args)
}

const defaultSummaryHours = 24

type CommandConfig struct {
	ReminderLead time.Duration
	Location     *time.Location
}

type commandHandler func(ctx context.Context, req input.Request) (input.Reply, error)

// CommandService routes explicit commands. Commands write straight to the
// store without a confirmation round trip.
type CommandService struct {
	events       input.EventUseCase
	conversation input.ConversationUseCase
	extractor    *datetime.Extractor
	exporter     output.CalendarExporter
	translator   output.Translator
	recorder     output.Recorder
	logger       *slog.Logger

	handlers map[string]commandHandler
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewCommandService(
	events input.EventUseCase,
	conversation input.ConversationUseCase,
	extractor *datetime.Extractor,
	exporter output.CalendarExporter,
	translator output.Translator,
	recorder output.Recorder,
	logger *slog.Logger,
	cfg CommandConfig,
) *CommandService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	s := &CommandService{
		events:       events,
		conversation: conversation,
		extractor:    extractor,
		exporter:     exporter,
		translator:   translator,
		recorder:     recorder,
		logger:       logger.With("component", "commands"),
		lead:         cfg.ReminderLead,
		loc:          cfg.Location,
		now:          time.Now,
	}
	s.handlers = map[string]commandHandler{
		CmdAdd:       s.handleAdd,
		CmdDelete:    s.handleDelete,
		CmdShow:      s.handleShow,
		CmdRemind:    s.handleRemind,
		CmdSummarize: s.handleSummarize,
		CmdExport:    s.handleExport,
		CmdHelp:      s.handleHelp,
	}
	return s
}

// Route runs the handler for req.Verb. Every failure, including a panic in a
// handler, comes back as reply text.
func (s *CommandService) Route(ctx context.Context, req input.Request) (reply input.Reply) {
	verb, ok := Canonical(req.Verb)
	if !ok {
		s.recorder.CommandHandled("unknown", "rejected")
		return input.Reply{Text: s.translator.T(req.Locale, "command.unknown", nil)}
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("command panicked", "command", verb, "panic", fmt.Sprint(p))
			s.recorder.CommandHandled(verb, "panic")
			reply = input.Reply{Text: s.translator.T(req.Locale, "error.generic", nil)}
		}
	}()

	reply, err := s.handlers[verb](ctx, req)
	if err != nil {
		s.recorder.CommandHandled(verb, "error")
		return input.Reply{Text: s.errorText(req.Locale, verb, err)}
	}
	s.recorder.CommandHandled(verb, "ok")
	return reply
}

func (s *CommandService) errorText(locale, verb string, err error) string {
	switch domain.Code(err) {
	case domain.CodeExtractionNotFound:
		return s.translator.T(locale, "error.extraction", nil)
	case domain.CodeValidation:
		return s.translator.T(locale, "error.invalid", map[string]any{
			"Usage": s.translator.T(locale, "usage."+verb, nil),
		})
	case domain.CodeNotFound:
		return s.translator.T(locale, "error.not_found", nil)
	default:
		s.logger.Error("command failed", "command", verb, "error", err)
		return s.translator.T(locale, "error."+verb, nil)
	}
}

func (s *CommandService) handleAdd(ctx context.Context, req input.Request) (input.Reply, error) {
	if strings.TrimSpace(req.Args) == "" {
		return input.Reply{}, domain.Validation("add needs a text")
	}
	now := s.now().In(s.loc)
	r, err := s.extractor.Extract(req.Args, now)
	if err != nil {
		return input.Reply{}, err
	}
	id, err := s.events.AddEvent(ctx, entities.NewEvent{
		ChatID:       req.ChatID,
		Date:         r.Date,
		Time:         r.Time,
		Description:  r.Description,
		Participants: people.Join(people.Names(r.Description, req.Mentions)),
		MessageLink:  req.MessageLink,
	})
	if err != nil {
		return input.Reply{}, err
	}
	s.recorder.EventCreated(SourceCommand)

	if at, ok := defaultReminderAt(r.Date, r.Time, s.loc, s.lead, s.now()); ok {
		if _, err := s.events.AddReminder(ctx, id, at); err != nil {
			s.logger.Warn("default reminder not created", "event_id", id, "error", err)
		}
	}

	return input.Reply{Text: s.translator.T(req.Locale, "event.added", map[string]any{
		"ID":          id,
		"Date":        r.Date,
		"Time":        r.Time,
		"Description": r.Description,
	})}, nil
}

func (s *CommandService) handleDelete(ctx context.Context, req input.Request) (input.Reply, error) {
	id, err := parseID(req.Args)
	if err != nil {
		return input.Reply{}, err
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return input.Reply{}, err
	}
	return input.Reply{Text: s.translator.T(req.Locale, "event.deleted", map[string]any{"ID": id})}, nil
}

func (s *CommandService) handleShow(ctx context.Context, req input.Request) (input.Reply, error) {
	date, err := s.extractor.ResolveDate(req.Args, s.now().In(s.loc))
	if err != nil {
		return input.Reply{}, err
	}
	events, err := s.events.GetEvents(ctx, date)
	if err != nil {
		return input.Reply{}, err
	}
	if len(events) == 0 {
		return input.Reply{Text: s.translator.T(req.Locale, "events.none", map[string]any{"Date": date})}, nil
	}

	var b strings.Builder
	b.WriteString(s.translator.T(req.Locale, "events.header", map[string]any{"Date": date}))
	for _, e := range events {
		b.WriteString(fmt.Sprintf("\n🕒 %s - %s (#%d)", e.Time, e.Description, e.ID))
	}
	return input.Reply{Text: b.String()}, nil
}

// handleRemind takes "<event id> [when]". Without a when, the reminder is
// set lead before the event, or at the event time when no lead is configured.
func (s *CommandService) handleRemind(ctx context.Context, req input.Request) (input.Reply, error) {
	idArg, when, _ := strings.Cut(strings.TrimSpace(req.Args), " ")
	id, err := parseID(idArg)
	if err != nil {
		return input.Reply{}, err
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return input.Reply{}, err
	}

	now := s.now().In(s.loc)
	var at time.Time
	if when = strings.TrimSpace(when); when != "" {
		r, err := s.extractor.Extract(when, now)
		if err != nil {
			return input.Reply{}, domain.Validation("unrecognised reminder time %q", when)
		}
		at = r.At
	} else {
		lead := s.lead
		if lead <= 0 {
			lead = time.Nanosecond
		}
		var ok bool
		at, ok = defaultReminderAt(event.Date, event.Time, s.loc, lead, now)
		if !ok {
			return input.Reply{}, domain.Validation("event %d has already started", id)
		}
	}

	if _, err := s.events.AddReminder(ctx, id, at); err != nil {
		return input.Reply{}, err
	}
	return input.Reply{Text: s.translator.T(req.Locale, "reminder.set", map[string]any{
		"ID": id,
		"At": at.In(s.loc).Format("2006-01-02 15:04"),
	})}, nil
}

func (s *CommandService) handleSummarize(ctx context.Context, req input.Request) (input.Reply, error) {
	hours := defaultSummaryHours
	if n, err := strconv.Atoi(strings.TrimSpace(req.Args)); err == nil && n > 0 {
		hours = n
	}
	summary, err := s.conversation.Summarize(ctx, req.ChatID, time.Duration(hours)*time.Hour)
	if errors.Is(err, domain.ErrNotFound) {
		return input.Reply{Text: s.translator.T(req.Locale, "summary.none", nil)}, nil
	}
	if err != nil {
		return input.Reply{}, err
	}
	return input.Reply{Text: s.translator.T(req.Locale, "summary.result", map[string]any{
		"Hours":   hours,
		"Summary": summary,
	})}, nil
}

func (s *CommandService) handleExport(ctx context.Context, req input.Request) (input.Reply, error) {
	date, err := s.extractor.ResolveDate(req.Args, s.now().In(s.loc))
	if err != nil {
		return input.Reply{}, err
	}
	events, err := s.events.GetEvents(ctx, date)
	if err != nil {
		return input.Reply{}, err
	}
	if len(events) == 0 {
		return input.Reply{Text: s.translator.T(req.Locale, "events.none", map[string]any{"Date": date})}, nil
	}
	data, err := s.exporter.Export(events, s.loc)
	if err != nil {
		return input.Reply{}, err
	}
	return input.Reply{
		Text: s.translator.T(req.Locale, "export.ready", map[string]any{"Date": date, "Count": len(events)}),
		Attachment: &input.Attachment{
			Name:        "events-" + date + ".ics",
			ContentType: s.exporter.ContentType(),
			Data:        data,
		},
	}, nil
}

func (s *CommandService) handleHelp(_ context.Context, req input.Request) (input.Reply, error) {
	var b strings.Builder
	b.WriteString(s.translator.T(req.Locale, "help.header", nil))
	for _, c := range Commands {
		b.WriteString("\n• " + s.translator.T(req.Locale, "usage."+c, nil))
	}
	return input.Reply{Text: b.String()}, nil
}

func parseID(arg string) (int64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, domain.Validation("an event id is required")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("event id %q is not a number", arg)
	}
	return id, nil
}
