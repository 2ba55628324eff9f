package discord

import "github.com/bwmarrin/discordgo"

// ProposalButtons is the accept/reject row attached to a proposal prompt.
func ProposalButtons(token, acceptLabel, rejectLabel string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: acceptLabel, Style: discordgo.SuccessButton, CustomID: ProposalCustomID(ActionAccept, token)},
			discordgo.Button{Label: rejectLabel, Style: discordgo.SecondaryButton, CustomID: ProposalCustomID(ActionReject, token)},
		}},
	}
}

// MaxMessageLength is Discord's limit for message content.
const MaxMessageLength = 2000

// SplitMessage cuts content into chunks of at most limit runes, preferring
// line breaks.
func SplitMessage(content string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for j := limit; j > limit/2; j-- {
			if runes[j-1] == '\n' {
				cut = j
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// Truncate shortens content to limit runes.
func Truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit-1]) + "…"
}
