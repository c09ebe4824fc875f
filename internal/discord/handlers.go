package discord

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/kairos/internal/llm"
)

// Per-channel conversation history.
var (
	histories   = make(map[string][]llm.Message)
	historiesMu sync.Mutex
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned.
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	historiesMu.Lock()
	history := histories[m.ChannelID]
	historiesMu.Unlock()

	reply, newHistory := b.assistant.Run(context.Background(), history, content)

	// Cap stored history using the same budget as the assistant's context
	// window, so memory stays bounded without losing usable context.
	newHistory = llm.TrimMessages(newHistory, b.assistant.MaxContextTokens)

	historiesMu.Lock()
	histories[m.ChannelID] = newHistory
	historiesMu.Unlock()

	// Discord has a 2000 char limit; split if needed.
	for _, chunk := range splitMessage(reply, 2000) {
		s.ChannelMessageSend(m.ChannelID, chunk)
	}
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return strings.TrimSpace(s)
}

// splitMessage breaks long replies at newlines where possible, hard-splitting
// only when a single line exceeds the limit.
func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
