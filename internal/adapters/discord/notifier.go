package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/domain"
	"remindbot/internal/ports/output"
	pkgdiscord "remindbot/pkg/discord"
)

var _ output.Notifier = (*Notifier)(nil)

// messenger is the part of *discordgo.Session the notifier uses.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts reminders to Discord channels.
type Notifier struct {
	session messenger
}

func NewNotifier(session messenger) *Notifier {
	return &Notifier{session: session}
}

// SendMessage returns the ID of the first message when text has to be split.
func (n *Notifier) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	var firstID string
	for _, chunk := range pkgdiscord.SplitMessage(text, pkgdiscord.MaxMessageLength) {
		msg, err := n.session.ChannelMessageSend(chatID, chunk, discordgo.WithContext(ctx))
		if err != nil {
			return firstID, domain.Dispatch("send message", err)
		}
		if firstID == "" && msg != nil {
			firstID = msg.ID
		}
	}
	return firstID, nil
}
