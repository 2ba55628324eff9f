package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "remindbot/pkg/discord"
)

func (b *Bot) onComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	locale := interactionLocale(i, b.locale)
	if _, _, ok := pkgdiscord.ParseProposalCustomID(customID); !ok {
		respondEphemeral(s, i.Interaction, b.translator.T(locale, "command.unknown", nil))
		return
	}

	// Interactions must be acknowledged within three seconds.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		b.logger.Error("failed to acknowledge button", "custom_id", customID, "error", err)
		return
	}

	accepted := b.queue.Submit(i.ChannelID, func() {
		ctx, cancel := context.WithTimeout(b.ctx, jobTimeout)
		defer cancel()
		res, _ := b.handler.resolveButton(ctx, customID, locale)
		b.applyButtonResult(ctx, i, res)
	})
	if !accepted {
		b.followupEphemeral(context.Background(), i, b.translator.T(locale, "proposal.failed", nil))
	}
}

func (b *Bot) applyButtonResult(ctx context.Context, i *discordgo.InteractionCreate, res buttonResult) {
	switch {
	case res.Edit != "":
		content := pkgdiscord.Truncate(res.Edit, pkgdiscord.MaxMessageLength)
		components := []discordgo.MessageComponent{}
		if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:    &content,
			Components: &components,
		}, discordgo.WithContext(ctx)); err != nil {
			b.logger.Error("failed to update proposal", "error", err)
		}
	case res.Delete:
		if i.Message == nil {
			return
		}
		if err := b.session.ChannelMessageDelete(i.ChannelID, i.Message.ID, discordgo.WithContext(ctx)); err != nil {
			b.logger.Error("failed to delete proposal", "message", i.Message.ID, "error", err)
		}
	case res.Notice != "":
		b.followupEphemeral(ctx, i, res.Notice)
	}
}

func (b *Bot) followupEphemeral(ctx context.Context, i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx)); err != nil {
		b.logger.Error("failed to send followup", "error", err)
	}
}
