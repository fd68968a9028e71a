package discord

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/chat-commander/internal/chat"
)

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// normalizeMentions rewrites user mentions to the @id form the dispatcher
// matches on.
func normalizeMentions(content string) string {
	return mentionPattern.ReplaceAllString(content, "@$1")
}

type message struct {
	b    *Bot
	m    *discordgo.Message
	body string
}

func newMessage(b *Bot, m *discordgo.Message) *message {
	return &message{b: b, m: m, body: normalizeMentions(m.Content)}
}

func (m *message) ID() string     { return m.m.ID }
func (m *message) Body() string   { return m.body }
func (m *message) Author() string { return m.m.Author.ID }

func (m *message) HasQuotedMessage() bool {
	return m.m.MessageReference != nil
}

func (m *message) Chat(ctx context.Context) (chat.Chat, error) {
	return &channel{b: m.b, id: m.m.ChannelID, guildID: m.m.GuildID}, nil
}

func (m *message) Reply(ctx context.Context, text string) error {
	return m.b.send(ctx, func() error {
		_, err := m.b.api.ChannelMessageSendReply(m.m.ChannelID, text, m.m.Reference())
		return err
	})
}

// channel is a guild text channel or a direct message channel.
type channel struct {
	b       *Bot
	id      string
	guildID string
}

func (c *channel) ID() string { return c.id }

func (c *channel) IsGroup() bool { return c.guildID != "" }

// Participants lists the guild members with their admin flag. Direct
// channels have none.
func (c *channel) Participants(ctx context.Context) ([]chat.Participant, error) {
	if !c.IsGroup() {
		return nil, nil
	}
	guild, err := c.b.guild(c.guildID)
	if err != nil {
		return nil, err
	}
	members, err := c.b.members(guild)
	if err != nil {
		return nil, err
	}

	out := make([]chat.Participant, 0, len(members))
	for _, member := range members {
		if member.User == nil {
			continue
		}
		out = append(out, chat.Participant{
			Address: member.User.ID,
			IsAdmin: IsAdministrator(guild, member),
		})
	}
	return out, nil
}

func (c *channel) SendMessage(ctx context.Context, text string) error {
	return c.b.send(ctx, func() error {
		_, err := c.b.api.ChannelMessageSend(c.id, text)
		return err
	})
}
