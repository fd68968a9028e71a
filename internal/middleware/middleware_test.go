package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/chat-commander/internal/chat/chattest"
	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/storage"
)

type memoryHistory struct {
	mu   sync.Mutex
	recs map[string][]storage.CommandRecord
	err  error
}

func (h *memoryHistory) AppendCommand(chatID string, rec storage.CommandRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	if h.recs == nil {
		h.recs = make(map[string][]storage.CommandRecord)
	}
	h.recs[chatID] = append(h.recs[chatID], rec)
	return nil
}

type runs struct {
	names []string
	errs  []error
}

func (r *runs) ObserveRun(name string, _ time.Duration, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func echo(err error) command.Runner {
	return command.RunnerFunc(func(context.Context, *command.Context, command.Args) error { return err })
}

func TestWithCommandLogger(t *testing.T) {
	cmd := command.MustNew(command.Info{Name: "ping", Description: "d"}, echo(nil))
	group := &chattest.Chat{ChatID: "g1", Group: true}

	t.Run("records success and failure", func(t *testing.T) {
		h := &memoryHistory{}
		c := &command.Context{Message: chattest.NewMessage(group, "alice", "!ping")}
		args := command.NewArgs("target", "bob")

		require.NoError(t, WithCommandLogger(h)(cmd, echo(nil)).Run(context.Background(), c, args))
		boom := errors.New("boom")
		assert.ErrorIs(t, WithCommandLogger(h)(cmd, echo(boom)).Run(context.Background(), c, args), boom)

		recs := h.recs["g1"]
		require.Len(t, recs, 2)
		assert.Equal(t, "alice", recs[0].Author)
		assert.Equal(t, "ping", recs[0].Command)
		assert.Equal(t, `target="bob"`, recs[0].Args)
		assert.False(t, recs[0].Failed)
		assert.True(t, recs[1].Failed)
		assert.False(t, recs[0].At.IsZero())
	})

	t.Run("storage error does not fail the command", func(t *testing.T) {
		h := &memoryHistory{err: errors.New("disk full")}
		c := &command.Context{Message: chattest.NewMessage(group, "alice", "!ping")}
		assert.NoError(t, WithCommandLogger(h)(cmd, echo(nil)).Run(context.Background(), c, command.Args{}))
	})

	t.Run("chat lookup error skips the record", func(t *testing.T) {
		h := &memoryHistory{}
		msg := chattest.NewMessage(group, "alice", "!ping")
		msg.ChatErr = errors.New("gone")
		c := &command.Context{Message: msg}
		assert.NoError(t, WithCommandLogger(h)(cmd, echo(nil)).Run(context.Background(), c, command.Args{}))
		assert.Empty(t, h.recs)
	})
}

func TestWithMetrics(t *testing.T) {
	r := &runs{}
	cmd := command.MustNew(command.Info{Name: "ping", Description: "d"}, echo(nil))
	boom := errors.New("boom")

	run := command.ApplyMiddlewares(cmd, echo(boom), WithTiming(), WithMetrics(r))
	err := run.Run(context.Background(), &command.Context{}, command.Args{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ping"}, r.names)
	assert.Equal(t, []error{boom}, r.errs)
}
