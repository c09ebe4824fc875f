// Package discord fronts the assistant over Discord DMs and mentions. It is
// a thin transport: every message becomes one assistant run, every change
// still flows through the mutation engine.
package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/kairos/internal/assistant"
)

type Bot struct {
	session   *discordgo.Session
	assistant *assistant.Assistant
}

func NewBot(token string, a *assistant.Assistant) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, assistant: a}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	log.Printf("discord: connected as %s", s.State.User.Username)
	return bot, nil
}

// Send delivers a message outside any conversation, e.g. the weekly review.
func (b *Bot) Send(channelID, content string) {
	for _, chunk := range splitMessage(content, 2000) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			log.Printf("discord: sending to %s: %v", channelID, err)
		}
	}
}

func (b *Bot) Close() {
	b.session.Close()
}
