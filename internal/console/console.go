// Package console is a line based chat transport for running the bot from a
// terminal. Every input line becomes one message in a single group chat.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/keshon/chat-commander/internal/chat"
)

const (
	defaultSelf   = "bot"
	defaultAuthor = "me"
	defaultChatID = "console"

	quotePrefix = "> "
	asPrefix    = "/as "
)

// Client reads messages from an input stream and writes replies to out.
type Client struct {
	self   string
	chatID string
	admins map[string]bool

	mu     sync.Mutex
	author string
	out    io.Writer
}

type Option func(*Client)

// WithSelf sets the bot address used in mentions.
func WithSelf(addr string) Option {
	return func(c *Client) { c.self = addr }
}

// WithAuthor sets the address new lines are sent from.
func WithAuthor(addr string) Option {
	return func(c *Client) { c.author = addr }
}

// WithAdmins marks the addresses that are group admins.
func WithAdmins(addrs ...string) Option {
	return func(c *Client) {
		for _, a := range addrs {
			if a = strings.TrimSpace(a); a != "" {
				c.admins[a] = true
			}
		}
	}
}

func New(out io.Writer, opts ...Option) *Client {
	c := &Client{
		self:   defaultSelf,
		chatID: defaultChatID,
		author: defaultAuthor,
		admins: make(map[string]bool),
		out:    out,
	}
	for _, opt := range opts {
		opt(c)
	}
	// the bot administers its own console
	c.admins[c.self] = true
	return c
}

func (c *Client) Self(ctx context.Context) (string, error) { return c.self, nil }

// Author is the address lines are currently sent from.
func (c *Client) Author() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.author
}

// Messages scans r in the background. The channel closes at end of input or
// when ctx is done.
func (c *Client) Messages(ctx context.Context, r io.Reader) <-chan chat.Message {
	out := make(chan chat.Message)
	go func() {
		defer close(out)
		if err := c.scan(ctx, r, out); err != nil {
			log.Error().Err(err).Msg("console input failed")
		}
	}()
	return out
}

func (c *Client) scan(ctx context.Context, r io.Reader, out chan<- chat.Message) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		msg := c.parseLine(scanner.Text())
		if msg == nil {
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

// parseLine turns one input line into a message. "/as <address>" switches
// the author and produces no message.
func (c *Client) parseLine(line string) *message {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if rest, ok := strings.CutPrefix(line, asPrefix); ok {
		if addr := strings.TrimSpace(rest); addr != "" {
			c.mu.Lock()
			c.author = addr
			c.mu.Unlock()
			c.write("* now speaking as " + addr)
		}
		return nil
	}

	msg := &message{c: c, id: uuid.NewString(), author: c.Author(), body: line}
	if rest, ok := strings.CutPrefix(line, quotePrefix); ok {
		msg.body = rest
		msg.quoted = true
	}
	return msg
}

func (c *Client) write(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, line)
	return err
}

type message struct {
	c      *Client
	id     string
	author string
	body   string
	quoted bool
}

func (m *message) ID() string             { return m.id }
func (m *message) Body() string           { return m.body }
func (m *message) Author() string         { return m.author }
func (m *message) HasQuotedMessage() bool { return m.quoted }

func (m *message) Chat(ctx context.Context) (chat.Chat, error) {
	return &group{c: m.c}, nil
}

func (m *message) Reply(ctx context.Context, text string) error {
	return m.c.write(fmt.Sprintf("%s -> %s: %s", m.c.self, m.author, text))
}

// group is the single console chat. Its members are the bot, the admins and
// the current author.
type group struct {
	c *Client
}

func (g *group) ID() string    { return g.c.chatID }
func (g *group) IsGroup() bool { return true }

func (g *group) Participants(ctx context.Context) ([]chat.Participant, error) {
	seen := make(map[string]bool)
	var out []chat.Participant
	add := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, chat.Participant{Address: addr, IsAdmin: g.c.admins[addr]})
	}

	add(g.c.self)
	add(g.c.Author())
	for addr := range g.c.admins {
		add(addr)
	}
	return out, nil
}

func (g *group) SendMessage(ctx context.Context, text string) error {
	return g.c.write(fmt.Sprintf("%s: %s", g.c.self, text))
}
