// Package irc connects the dispatcher to an IRC network. One Client maps to
// one server connection; it implements the dispatcher's Notifier and
// ChannelController interfaces.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	ircevent "github.com/thoj/go-ircevent"

	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/handler"
	"github.com/mallardworks/duckhunt/internal/logger"
)

// Handler receives inbound channel lines. Satisfied by *handler.Dispatcher.
type Handler interface {
	HandleMessage(handler.Message)
}

// Client is one IRC server connection.
type Client struct {
	network  string
	nick     string
	server   string
	channels []string
	conn     *ircevent.Connection
}

// New builds a client from network configuration. Bind must be called before
// Run.
func New(cfg config.NetworkConfig) *Client {
	conn := ircevent.IRC(cfg.Nick, cfg.Nick)
	conn.UseTLS = cfg.TLS
	if cfg.TLS {
		host := cfg.Server
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			host = host[:idx]
		}
		conn.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	// account-tag lets us distinguish services-identified senders.
	conn.RequestCaps = []string{"account-tag"}

	return &Client{
		network:  cfg.Name,
		nick:     cfg.Nick,
		server:   cfg.Server,
		channels: cfg.Channels,
		conn:     conn,
	}
}

// Bind registers the inbound callbacks. The welcome handler joins the
// configured channels; PRIVMSG lines in channels are forwarded to h.
func (c *Client) Bind(h Handler) {
	c.conn.AddCallback("001", func(*ircevent.Event) {
		for _, ch := range c.channels {
			c.conn.Join(ch)
		}
	})

	c.conn.AddCallback("PRIVMSG", func(e *ircevent.Event) {
		target := e.Arguments[0]
		if !strings.HasPrefix(target, "#") && !strings.HasPrefix(target, "&") {
			return // private messages carry no game state
		}
		h.HandleMessage(handler.Message{
			Channel:  target,
			Nick:     e.Nick,
			Text:     e.Message(),
			Authed:   c.senderAuthed(e),
			FromSelf: e.Nick == c.conn.GetNick(),
		})
	})
}

// senderAuthed reports whether the sender is identified with services.
// When the server granted account-tag, an identified sender carries the tag;
// without the capability every sender passes, matching nick-based identity.
func (c *Client) senderAuthed(e *ircevent.Event) bool {
	if len(e.Tags) == 0 {
		return true
	}
	account, ok := e.Tags["account"]
	return ok && account != "" && account != "*"
}

// Run connects and blocks until the connection ends or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Connecting to IRC", "network", c.network, "server", c.server, "nick", c.nick)

	if err := c.conn.Connect(c.server); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.server, err)
	}

	go func() {
		<-ctx.Done()
		c.conn.Quit()
	}()

	c.conn.Loop()
	log.Info("IRC connection closed", "network", c.network)
	return nil
}

// SendMessage posts to a channel.
func (c *Client) SendMessage(channel, text string) {
	c.conn.Privmsg(channel, text)
}

// SendNotice sends a private notice; notices never trigger bot loops.
func (c *Client) SendNotice(nick, text string) {
	c.conn.Notice(nick, text)
}

// JoinChannel joins a channel at runtime.
func (c *Client) JoinChannel(channel string) {
	c.conn.Join(channel)
}

// PartChannel leaves a channel at runtime.
func (c *Client) PartChannel(channel string) {
	c.conn.Part(channel)
}
