package discord

import (
	"bytes"
	"strings"

	"github.com/bwmarrin/discordgo"

	"remindbot/internal/ports/input"
)

// Nick > GlobalName > Username
func resolveDisplayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil && member != nil {
		user = member.User
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// interactionUser is the member's user in guilds and the plain user in DMs.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// interactionLocale reduces the client locale ("en-US", "ru") to its language.
func interactionLocale(i *discordgo.InteractionCreate, fallback string) string {
	lang, _, _ := strings.Cut(string(i.Locale), "-")
	if lang == "" {
		return fallback
	}
	return lang
}

func respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	_ = s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func attachmentFiles(a *input.Attachment) []*discordgo.File {
	if a == nil {
		return nil
	}
	return []*discordgo.File{{
		Name:        a.Name,
		ContentType: a.ContentType,
		Reader:      bytes.NewReader(a.Data),
	}}
}
