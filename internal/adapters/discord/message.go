package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "remindbot/pkg/discord"
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}

	msg := toInbound(m.Message, botID)
	msg.Username = resolveDisplayName(m.Member, m.Author)

	accepted := b.queue.Submit(m.ChannelID, func() {
		ctx, cancel := context.WithTimeout(b.ctx, jobTimeout)
		defer cancel()
		b.send(ctx, m.ChannelID, b.handler.dispatchMessage(ctx, msg))
	})
	if !accepted {
		b.logger.Debug("message dropped, shutting down", "chat", m.ChannelID)
	}
}

// toInbound strips the bot's own mention and spells out the others as
// "@name", keeping the names as participants.
func toInbound(m *discordgo.Message, botID string) inbound {
	msg := inbound{
		ChatID:      m.ChannelID,
		MessageID:   m.ID,
		MessageLink: pkgdiscord.MessageLink(m.GuildID, m.ChannelID, m.ID),
	}
	if m.Author != nil {
		msg.UserID = m.Author.ID
		msg.Username = m.Author.Username
	}

	text := m.Content
	if botID != "" {
		text = pkgdiscord.StripMention(text, botID)
	}

	var pairs []string
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		if u.ID == botID {
			msg.MentionsBot = true
			continue
		}
		name := resolveDisplayName(nil, u)
		msg.Mentions = append(msg.Mentions, name)
		pairs = append(pairs, "<@"+u.ID+">", "@"+name, "<@!"+u.ID+">", "@"+name)
	}
	if len(pairs) > 0 {
		text = strings.NewReplacer(pairs...).Replace(text)
	}
	msg.Text = text
	return msg
}

func (b *Bot) send(ctx context.Context, channelID string, out *outbound) {
	if out == nil || strings.TrimSpace(out.Text) == "" {
		return
	}
	chunks := pkgdiscord.SplitMessage(out.Text, pkgdiscord.MaxMessageLength)
	for n, chunk := range chunks {
		data := &discordgo.MessageSend{Content: chunk}
		if n == len(chunks)-1 {
			data.Files = attachmentFiles(out.Attachment)
			if out.ProposalToken != "" {
				data.Components = pkgdiscord.ProposalButtons(
					out.ProposalToken,
					b.translator.T(b.locale, "proposal.accept", nil),
					b.translator.T(b.locale, "proposal.reject", nil),
				)
			}
		}
		if _, err := b.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx)); err != nil {
			b.logger.Error("failed to send message", "chat", channelID, "error", err)
			return
		}
	}
}
