// Package discord connects the dispatcher to a Discord guild. Commands arrive
// as plain prefixed messages; the bot implements the dispatcher's Notifier.
// Discord accounts are always authenticated, so every message passes the auth
// gate.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/handler"
	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Handler receives inbound channel lines. Satisfied by *handler.Dispatcher.
type Handler interface {
	HandleMessage(handler.Message)
}

// Bot is one Discord gateway session.
type Bot struct {
	network string
	session *discordgo.Session

	// Notices go out as DMs; Discord addresses users by ID, the game by
	// nick. The map remembers the ID of everyone who has spoken.
	mu      sync.RWMutex
	userIDs map[string]string // normalized nick -> user ID
}

// New creates a bot from network configuration. Bind must be called before
// Start.
func New(cfg config.NetworkConfig) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return &Bot{
		network: cfg.Name,
		session: session,
		userIDs: make(map[string]string),
	}, nil
}

// Bind registers the message handler.
func (b *Bot) Bind(h Handler) {
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		nick := m.Author.Username
		b.mu.Lock()
		b.userIDs[utils.NormalizeKey(nick)] = m.Author.ID
		b.mu.Unlock()

		h.HandleMessage(handler.Message{
			Channel:  m.ChannelID,
			Nick:     nick,
			Text:     m.Content,
			Authed:   true,
			FromSelf: s.State.User != nil && m.Author.ID == s.State.User.ID,
		})
	})
}

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	log.Info("Discord bot connected", "network", b.network)

	<-ctx.Done()
	log.Info("Discord bot shutting down", "network", b.network)
	return b.session.Close()
}

// SendMessage posts to a channel.
func (b *Bot) SendMessage(channel, text string) {
	if _, err := b.session.ChannelMessageSend(channel, text); err != nil {
		logger.FromContext(context.Background()).Error("Failed to send Discord message",
			"network", b.network, "channel", channel, "error", err)
	}
}

// SendNotice delivers a private line via DM. Unknown nicks (never spoken
// since startup) are dropped silently.
func (b *Bot) SendNotice(nick, text string) {
	b.mu.RLock()
	userID, ok := b.userIDs[utils.NormalizeKey(nick)]
	b.mu.RUnlock()
	if !ok {
		return
	}

	dm, err := b.session.UserChannelCreate(userID)
	if err != nil {
		logger.FromContext(context.Background()).Error("Failed to open Discord DM",
			"network", b.network, "nick", nick, "error", err)
		return
	}
	if _, err := b.session.ChannelMessageSend(dm.ID, text); err != nil {
		logger.FromContext(context.Background()).Error("Failed to send Discord DM",
			"network", b.network, "nick", nick, "error", err)
	}
}
