package discord

import (
	"fmt"
	"regexp"
	"strings"
)

// MessageLink returns the jump URL of a message. Direct messages use "@me".
func MessageLink(guildID, channelID, messageID string) string {
	if channelID == "" || messageID == "" {
		return ""
	}
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// StripMention removes every mention of userID from content.
func StripMention(content, userID string) string {
	out := mentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		if mentionPattern.FindStringSubmatch(m)[1] == userID {
			return ""
		}
		return m
	})
	return strings.Join(strings.Fields(out), " ")
}
