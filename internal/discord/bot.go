package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/chat-commander/internal/chat"
	"github.com/keshon/chat-commander/pkg/retrylimit"
)

var ErrNotReady = errors.New("discord session is not ready")

// api is the part of *discordgo.Session the adapter calls over REST.
type api interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// Bot is a Discord bot that turns guild and direct messages into chat
// messages for the dispatcher.
type Bot struct {
	dg      *discordgo.Session
	api     api
	state   *discordgo.State
	limiter *retrylimit.AdaptiveLimiter
	retries int

	msgs chan chat.Message
	done chan struct{}

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// New creates a bot for token. Call Run to connect.
func New(token string) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := newBot(dg, dg.State)
	b.dg = dg
	return b, nil
}

func newBot(a api, state *discordgo.State) *Bot {
	return &Bot{
		api:     a,
		state:   state,
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retries: 3,
		msgs:    make(chan chat.Message, 64),
		done:    make(chan struct{}),
	}
}

// Messages delivers inbound messages until Run returns.
func (b *Bot) Messages() <-chan chat.Message { return b.msgs }

// Self returns the bot user id, known once the session is ready.
func (b *Bot) Self(ctx context.Context) (string, error) {
	if b.state == nil || b.state.User == nil {
		return "", ErrNotReady
	}
	return b.state.User.ID, nil
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if b.dg == nil {
		return ErrNotReady
	}
	defer b.shutdown()

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, closing discord session")
	return nil
}

func (b *Bot) shutdown() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		close(b.msgs)
	})
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(m.Message)
}

// handleMessage forwards a user message. Messages from bots, including this
// one, are dropped.
func (b *Bot) handleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if self, err := b.Self(context.Background()); err == nil && m.Author.ID == self {
		return
	}

	msg := newMessage(b, m)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.msgs <- msg:
	case <-b.done:
	}
}

// send runs an outbound call through the limiter and retry loop.
func (b *Bot) send(ctx context.Context, fn func() error) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = b.retries
	cfg.Status = restStatus
	return retrylimit.WithRetryConfig(ctx, fn, b.limiter, cfg)
}

// restStatus reads the HTTP status of a discordgo REST error.
func restStatus(err error) (int, bool) {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode, true
	}
	return 0, false
}
