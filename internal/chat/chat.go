// Package chat describes the host transport the command core runs on top of.
// The core only needs to read a message, look up the chat it was sent to and
// reply; delivery, membership and acknowledgement stay with the transport.
package chat

import "context"

// Participant is a member of a chat.
type Participant struct {
	Address string
	IsAdmin bool
}

// Chat is the conversation a message was posted in.
type Chat interface {
	ID() string
	IsGroup() bool
	// Participants returns the members of a group chat. Direct chats may
	// return nil.
	Participants(ctx context.Context) ([]Participant, error)
	SendMessage(ctx context.Context, text string) error
}

// Message is a single inbound chat message.
type Message interface {
	// ID is stable for the lifetime of the message and can be used as an
	// acknowledgement key.
	ID() string
	Body() string
	// Author is the sender address.
	Author() string
	// HasQuotedMessage reports whether the message is a reply to another one.
	HasQuotedMessage() bool
	Chat(ctx context.Context) (Chat, error)
	Reply(ctx context.Context, text string) error
}

// Client is the host identity the dispatcher builds its mention form from.
type Client interface {
	// Self returns the bot's own resolved address.
	Self(ctx context.Context) (string, error)
}
