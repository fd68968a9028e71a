package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	replies []string
	refs    []*discordgo.MessageReference
	sendErr []error

	guilds  map[string]*discordgo.Guild
	members map[string][]*discordgo.Member
	pages   []string
}

func (f *fakeAPI) nextErr() error {
	if len(f.sendErr) == 0 {
		return nil
	}
	err := f.sendErr[0]
	f.sendErr = f.sendErr[1:]
	return err
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	f.sent = append(f.sent, channelID+":"+content)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	f.replies = append(f.replies, channelID+":"+content)
	f.refs = append(f.refs, ref)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	if g, ok := f.guilds[guildID]; ok {
		return g, nil
	}
	return nil, errors.New("unknown guild")
}

func (f *fakeAPI) GuildMembers(guildID, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.pages = append(f.pages, after)
	all := f.members[guildID]
	start := 0
	for i, m := range all {
		if m.User.ID == after {
			start = i + 1
		}
	}
	end := min(start+limit, len(all))
	return all[start:end], nil
}

func restErr(code int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: code}}
}

func member(id string, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}, Roles: roles}
}

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      "g1",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "admins", Permissions: discordgo.PermissionAdministrator},
			{ID: "mods", Permissions: discordgo.PermissionManageMessages},
		},
		Members: []*discordgo.Member{
			member("owner"),
			member("alice", "admins"),
			member("bob", "mods"),
		},
	}
}

func newTestBot(t *testing.T, api *fakeAPI) *Bot {
	t.Helper()
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "bot"}
	b := newBot(api, state)
	b.limiter = nil
	return b
}

func TestNormalizeMentions(t *testing.T) {
	tests := map[string]string{
		"<@123> ping":         "@123 ping",
		"<@!123> ping":        "@123 ping",
		"hi <@1> and <@!2>":   "hi @1 and @2",
		"<@&99> role mention": "<@&99> role mention",
		"plain":               "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeMentions(in), in)
	}
}

func TestIsAdministrator(t *testing.T) {
	g := testGuild()
	assert.True(t, IsAdministrator(g, member("owner")))
	assert.True(t, IsAdministrator(g, member("alice", "admins")))
	assert.False(t, IsAdministrator(g, member("bob", "mods")))
	assert.False(t, IsAdministrator(g, member("carol")))
	assert.False(t, IsAdministrator(nil, member("carol")))
	assert.False(t, IsAdministrator(g, &discordgo.Member{}))
}

func TestHandleMessage(t *testing.T) {
	b := newTestBot(t, &fakeAPI{})

	b.handleMessage(&discordgo.Message{ID: "1", Author: &discordgo.User{ID: "bot"}, Content: "!ping"})
	b.handleMessage(&discordgo.Message{ID: "2", Author: &discordgo.User{ID: "other", Bot: true}, Content: "!ping"})
	b.handleMessage(&discordgo.Message{ID: "3", Author: &discordgo.User{ID: "alice"}, Content: "<@!bot> ping", ChannelID: "c1", GuildID: "g1"})

	require.Len(t, b.msgs, 1)
	msg := <-b.msgs
	assert.Equal(t, "3", msg.ID())
	assert.Equal(t, "alice", msg.Author())
	assert.Equal(t, "<@!bot> ping", msg.Body(), "only numeric ids are rewritten")
	assert.False(t, msg.HasQuotedMessage())

	b.shutdown()
	b.handleMessage(&discordgo.Message{ID: "4", Author: &discordgo.User{ID: "alice"}, Content: "late"})
	_, open := <-b.msgs
	assert.False(t, open)
}

func TestMessage_ChatAndReply(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api)
	require.NoError(t, b.state.GuildAdd(testGuild()))

	raw := &discordgo.Message{
		ID:               "m1",
		ChannelID:        "c1",
		GuildID:          "g1",
		Author:           &discordgo.User{ID: "alice"},
		Content:          "<@42> help",
		MessageReference: &discordgo.MessageReference{MessageID: "m0"},
	}
	msg := newMessage(b, raw)
	assert.Equal(t, "@42 help", msg.Body())
	assert.True(t, msg.HasQuotedMessage())

	ch, err := msg.Chat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", ch.ID())
	assert.True(t, ch.IsGroup())

	participants, err := ch.Participants(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 3)
	admins := map[string]bool{}
	for _, p := range participants {
		admins[p.Address] = p.IsAdmin
	}
	assert.Equal(t, map[string]bool{"owner": true, "alice": true, "bob": false}, admins)

	require.NoError(t, msg.Reply(context.Background(), "pong"))
	require.NoError(t, ch.SendMessage(context.Background(), "hello"))
	assert.Equal(t, []string{"c1:pong"}, api.replies)
	assert.Equal(t, "m1", api.refs[0].MessageID)
	assert.Equal(t, []string{"c1:hello"}, api.sent)
}

func TestChannel_DirectMessage(t *testing.T) {
	b := newTestBot(t, &fakeAPI{})
	msg := newMessage(b, &discordgo.Message{ID: "m", ChannelID: "dm", Author: &discordgo.User{ID: "alice"}})

	ch, err := msg.Chat(context.Background())
	require.NoError(t, err)
	assert.False(t, ch.IsGroup())
	participants, err := ch.Participants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestParticipants_RESTFallback(t *testing.T) {
	g := testGuild()
	g.Members = nil

	all := make([]*discordgo.Member, 0, membersPageSize+5)
	for i := range membersPageSize + 5 {
		all = append(all, member(fmt.Sprintf("u%04d", i)))
	}
	api := &fakeAPI{
		guilds:  map[string]*discordgo.Guild{"g1": g},
		members: map[string][]*discordgo.Member{"g1": all},
	}
	b := newTestBot(t, api)

	ch := &channel{b: b, id: "c1", guildID: "g1"}
	participants, err := ch.Participants(context.Background())
	require.NoError(t, err)
	assert.Len(t, participants, membersPageSize+5)
	assert.Len(t, api.pages, 2)
}

func TestSend_Retries(t *testing.T) {
	t.Run("server error is retried", func(t *testing.T) {
		api := &fakeAPI{sendErr: []error{restErr(http.StatusBadGateway)}}
		b := newTestBot(t, api)
		ch := &channel{b: b, id: "c1"}
		require.NoError(t, ch.SendMessage(context.Background(), "hi"))
		assert.Equal(t, []string{"c1:hi"}, api.sent)
	})

	t.Run("forbidden is final", func(t *testing.T) {
		api := &fakeAPI{sendErr: []error{restErr(http.StatusForbidden)}}
		b := newTestBot(t, api)
		ch := &channel{b: b, id: "c1"}
		err := ch.SendMessage(context.Background(), "hi")
		var rerr *discordgo.RESTError
		require.ErrorAs(t, err, &rerr)
		assert.Empty(t, api.sent)
	})
}

func TestSelf(t *testing.T) {
	b := newBot(&fakeAPI{}, discordgo.NewState())
	_, err := b.Self(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)

	b.state.User = &discordgo.User{ID: "bot"}
	self, err := b.Self(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bot", self)

	assert.ErrorIs(t, newBot(&fakeAPI{}, nil).Run(context.Background()), ErrNotReady)
}

func TestRestStatus(t *testing.T) {
	code, ok := restStatus(fmt.Errorf("send: %w", restErr(429)))
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	_, ok = restStatus(errors.New("plain"))
	assert.False(t, ok)
}
