// Package chattest provides in-memory chat transport fakes for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/keshon/chat-commander/internal/chat"
)

// Chat is an in-memory chat.Chat.
type Chat struct {
	ChatID  string
	Group   bool
	Members []chat.Participant
	// Err is returned from Participants when set.
	Err error

	mu   sync.Mutex
	sent []string
}

func (c *Chat) ID() string    { return c.ChatID }
func (c *Chat) IsGroup() bool { return c.Group }

func (c *Chat) Participants(ctx context.Context) ([]chat.Participant, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Members, nil
}

func (c *Chat) SendMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

// Sent returns a copy of everything sent to the chat.
func (c *Chat) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// Message is an in-memory chat.Message.
type Message struct {
	MessageID string
	Text      string
	From      string
	Quoted    bool
	In        *Chat
	// ChatErr is returned from Chat when set.
	ChatErr error

	mu      sync.Mutex
	replies []string
}

// NewMessage returns a message from author posted in c.
func NewMessage(c *Chat, author, text string) *Message {
	return &Message{MessageID: "msg-" + text, Text: text, From: author, In: c}
}

func (m *Message) ID() string             { return m.MessageID }
func (m *Message) Body() string           { return m.Text }
func (m *Message) Author() string         { return m.From }
func (m *Message) HasQuotedMessage() bool { return m.Quoted }

func (m *Message) Chat(ctx context.Context) (chat.Chat, error) {
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	if m.In == nil {
		return &Chat{ChatID: "direct"}, nil
	}
	return m.In, nil
}

func (m *Message) Reply(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

// Replies returns a copy of every reply made to the message.
func (m *Message) Replies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.replies...)
}

// LastReply returns the most recent reply or "".
func (m *Message) LastReply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return ""
	}
	return m.replies[len(m.replies)-1]
}

// Client is a chat.Client with a fixed address.
type Client struct {
	Address string
	Err     error
}

func (c Client) Self(ctx context.Context) (string, error) { return c.Address, c.Err }
