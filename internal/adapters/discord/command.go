package discord

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/application"
	"remindbot/internal/ports/input"
	pkgdiscord "remindbot/pkg/discord"
)

// slashOption describes one option of a slash command; the order of a
// command's options is the order of its textual arguments.
type slashOption struct {
	name     string
	kind     discordgo.ApplicationCommandOptionType
	required bool
}

var slashOptions = map[string][]slashOption{
	application.CmdAdd:       {{name: "text", kind: discordgo.ApplicationCommandOptionString, required: true}},
	application.CmdDelete:    {{name: "id", kind: discordgo.ApplicationCommandOptionInteger, required: true}},
	application.CmdShow:      {{name: "date", kind: discordgo.ApplicationCommandOptionString}},
	application.CmdRemind:    {{name: "id", kind: discordgo.ApplicationCommandOptionInteger, required: true}, {name: "when", kind: discordgo.ApplicationCommandOptionString}},
	application.CmdSummarize: {{name: "hours", kind: discordgo.ApplicationCommandOptionInteger}},
	application.CmdExport:    {{name: "date", kind: discordgo.ApplicationCommandOptionString}},
	application.CmdHelp:      nil,
}

var russianNames = map[string]string{
	application.CmdAdd:       "добавить",
	application.CmdDelete:    "удалить",
	application.CmdShow:      "показать",
	application.CmdRemind:    "напомнить",
	application.CmdSummarize: "пересказать",
	application.CmdExport:    "экспорт",
	application.CmdHelp:      "помощь",
}

// applicationCommands builds the slash commands with their descriptions in
// every shipped locale.
func applicationCommands(catalog Catalog, defaultLocale string) []*discordgo.ApplicationCommand {
	commands := make([]*discordgo.ApplicationCommand, 0, len(application.Commands))
	minID := 1.0
	for _, verb := range application.Commands {
		descriptions := catalog.All("command."+verb+".description", nil)
		names := map[discordgo.Locale]string{discordgo.Russian: russianNames[verb]}
		cmd := &discordgo.ApplicationCommand{
			Name:                     verb,
			NameLocalizations:        &names,
			Description:              pick(descriptions, defaultLocale),
			DescriptionLocalizations: localized(descriptions),
		}
		for _, opt := range slashOptions[verb] {
			optDescriptions := catalog.All("option."+opt.name+".description", nil)
			o := &discordgo.ApplicationCommandOption{
				Type:                     opt.kind,
				Name:                     opt.name,
				Description:              pick(optDescriptions, defaultLocale),
				DescriptionLocalizations: *localized(optDescriptions),
				Required:                 opt.required,
			}
			if opt.kind == discordgo.ApplicationCommandOptionInteger {
				o.MinValue = &minID
			}
			cmd.Options = append(cmd.Options, o)
		}
		commands = append(commands, cmd)
	}
	return commands
}

func pick(byLocale map[string]string, locale string) string {
	if text, ok := byLocale[locale]; ok {
		return text
	}
	return byLocale["en"]
}

func localized(byLocale map[string]string) *map[discordgo.Locale]string {
	out := make(map[discordgo.Locale]string, len(byLocale))
	for locale, text := range byLocale {
		switch locale {
		case "en":
			out[discordgo.EnglishUS] = text
			out[discordgo.EnglishGB] = text
		default:
			out[discordgo.Locale(locale)] = text
		}
	}
	return &out
}

// slashArgs turns a slash command into the verb and argument string a
// prefixed text command would carry.
func slashArgs(data discordgo.ApplicationCommandInteractionData) (verb, args string) {
	values := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionInteger:
			values[opt.Name] = strconv.FormatInt(opt.IntValue(), 10)
		case discordgo.ApplicationCommandOptionString:
			values[opt.Name] = strings.TrimSpace(opt.StringValue())
		}
	}
	var parts []string
	for _, opt := range slashOptions[data.Name] {
		if v := values[opt.name]; v != "" {
			parts = append(parts, v)
		}
	}
	return data.Name, strings.Join(parts, " ")
}

func (b *Bot) onApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	locale := interactionLocale(i, b.locale)
	if _, ok := application.Canonical(data.Name); !ok {
		respondEphemeral(s, i.Interaction, b.translator.T(locale, "command.unknown", nil))
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Error("failed to acknowledge command", "command", data.Name, "error", err)
		return
	}

	verb, args := slashArgs(data)
	req := input.Request{
		Verb:   verb,
		Args:   args,
		ChatID: i.ChannelID,
		Locale: locale,
	}
	if u := interactionUser(i); u != nil {
		req.UserID = u.ID
	}

	accepted := b.queue.Submit(i.ChannelID, func() {
		ctx, cancel := context.WithTimeout(b.ctx, jobTimeout)
		defer cancel()
		reply := b.handler.commands.Route(ctx, req)
		content := pkgdiscord.Truncate(reply.Text, pkgdiscord.MaxMessageLength)
		if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &content,
			Files:   attachmentFiles(reply.Attachment),
		}, discordgo.WithContext(ctx)); err != nil {
			b.logger.Error("failed to answer command", "command", verb, "error", err)
		}
	})
	if !accepted {
		b.followupEphemeral(context.Background(), i, b.translator.T(locale, "error.generic", nil))
	}
}
