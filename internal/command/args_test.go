package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/chat-commander/internal/chat/chattest"
	"github.com/keshon/chat-commander/internal/command"
)

func argList(specs ...command.Argument) []*command.Argument {
	cmd := command.MustNew(command.Info{Name: "t", Description: "d", Args: specs}, noop)
	return cmd.Args
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []*command.Argument
		want  []string
	}{
		{
			name:  "empty input",
			input: "   ",
			args:  argList(command.Argument{Key: "a"}),
			want:  []string{},
		},
		{
			name:  "single argument takes the whole text",
			input: "hello big world",
			args:  argList(command.Argument{Key: "a"}),
			want:  []string{"hello big world"},
		},
		{
			name:  "single argument unwraps a quoted span",
			input: `"hello world"`,
			args:  argList(command.Argument{Key: "a"}),
			want:  []string{"hello world"},
		},
		{
			name:  "last argument gets the remainder verbatim",
			input: "a b   c",
			args:  argList(command.Argument{Key: "x"}, command.Argument{Key: "y"}),
			want:  []string{"a", "b   c"},
		},
		{
			name:  "remainder keeps inner quotes",
			input: `a "b c" d`,
			args:  argList(command.Argument{Key: "x"}, command.Argument{Key: "y"}),
			want:  []string{"a", `"b c" d`},
		},
		{
			name:  "quoted tokens",
			input: `"first one" second`,
			args:  argList(command.Argument{Key: "x"}, command.Argument{Key: "y"}, command.Argument{Key: "z", Optional: true}),
			want:  []string{"first one", "second"},
		},
		{
			name:  "curly quotes",
			input: "“hello there” x",
			args:  argList(command.Argument{Key: "x"}, command.Argument{Key: "y"}, command.Argument{Key: "z", Optional: true}),
			want:  []string{"hello there", "x"},
		},
		{
			name:  "unterminated quote is a plain token",
			input: `"open x`,
			args:  argList(command.Argument{Key: "x"}, command.Argument{Key: "y"}, command.Argument{Key: "z", Optional: true}),
			want:  []string{`"open`, "x"},
		},
		{
			name:  "infinite argument is unbounded",
			input: `say "hello world" again`,
			args:  argList(command.Argument{Key: "first"}, command.Argument{Key: "rest", Infinite: true}),
			want:  []string{"say", "hello world", "again"},
		},
		{
			name:  "no formal arguments splits everything",
			input: "a b c",
			args:  nil,
			want:  []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, command.ParseArgs(tt.input, tt.args))
		})
	}
}

func TestObtainArgs(t *testing.T) {
	ctx := context.Background()
	cc := &command.Context{Message: chattest.NewMessage(nil, "u1", "!x")}

	t.Run("infinite binding", func(t *testing.T) {
		cmd := command.MustNew(command.Info{
			Name:        "say",
			Description: "d",
			Args:        []command.Argument{{Key: "first"}, {Key: "rest", Infinite: true}},
		}, noop)

		tokens := command.ParseArgs(`say "hello world" again`, cmd.Args)
		args, err := command.ObtainArgs(ctx, cc, cmd, tokens)
		require.NoError(t, err)

		assert.Equal(t, []string{"first", "rest"}, args.Keys())
		assert.Equal(t, "say", args.String("first"))
		assert.Equal(t, []string{"hello world", "again"}, args.Strings("rest"))
		assert.Equal(t, "hello world again", args.String("rest"))
	})

	t.Run("missing required argument fails fast", func(t *testing.T) {
		calls := 0
		cmd := command.MustNew(command.Info{
			Name:        "pair",
			Description: "d",
			Args: []command.Argument{
				{Key: "a"},
				{Key: "b"},
				{Key: "c", Optional: true, Default: command.ComputedDefault(func(context.Context, *command.Context, *command.Command) (any, error) {
					calls++
					return "c", nil
				})},
			},
		}, noop)

		_, err := command.ObtainArgs(ctx, cc, cmd, []string{"only"})
		require.Error(t, err)
		assert.ErrorIs(t, err, command.ErrMissingArgument)

		var argErr *command.ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "b", argErr.Arg.Key)
		assert.Zero(t, calls)
	})

	t.Run("static default", func(t *testing.T) {
		cmd := command.MustNew(command.Info{
			Name:        "help",
			Description: "d",
			Args:        []command.Argument{{Key: "command", Optional: true, Default: command.StaticDefault{Value: ""}}},
		}, noop)

		args, err := command.ObtainArgs(ctx, cc, cmd, nil)
		require.NoError(t, err)
		v, ok := args.Get("command")
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("computed default sees message and command once", func(t *testing.T) {
		var gotMsg string
		var gotCmd *command.Command
		calls := 0
		cmd := command.MustNew(command.Info{
			Name:        "who",
			Description: "d",
			Args: []command.Argument{{Key: "user", Optional: true, Default: command.ComputedDefault(
				func(_ context.Context, c *command.Context, cmd *command.Command) (any, error) {
					calls++
					gotMsg = c.Message.Author()
					gotCmd = cmd
					return c.Message.Author(), nil
				})}},
		}, noop)

		args, err := command.ObtainArgs(ctx, cc, cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "u1", gotMsg)
		assert.Same(t, cmd, gotCmd)
		assert.Equal(t, "u1", args.String("user"))
	})

	t.Run("empty infinite uses default", func(t *testing.T) {
		cmd := command.MustNew(command.Info{
			Name:        "tags",
			Description: "d",
			Args:        []command.Argument{{Key: "tags", Optional: true, Infinite: true, Default: command.StaticDefault{Value: []string{"all"}}}},
		}, noop)

		args, err := command.ObtainArgs(ctx, cc, cmd, []string{})
		require.NoError(t, err)
		assert.Equal(t, []string{"all"}, args.Strings("tags"))
	})

	t.Run("empty infinite without default fails", func(t *testing.T) {
		cmd := command.MustNew(command.Info{
			Name:        "tags",
			Description: "d",
			Args:        []command.Argument{{Key: "tags", Infinite: true}},
		}, noop)

		_, err := command.ObtainArgs(ctx, cc, cmd, nil)
		assert.ErrorIs(t, err, command.ErrMissingArgument)
	})

	t.Run("default error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		cmd := command.MustNew(command.Info{
			Name:        "x",
			Description: "d",
			Args: []command.Argument{{Key: "a", Optional: true, Default: command.ComputedDefault(
				func(context.Context, *command.Context, *command.Command) (any, error) { return nil, boom })}},
		}, noop)

		_, err := command.ObtainArgs(ctx, cc, cmd, nil)
		assert.ErrorIs(t, err, boom)
	})
}

func TestArgs_Encode(t *testing.T) {
	args := command.NewArgs("name", "ping", "rest", []string{"a", "b"})
	assert.Equal(t, `name="ping" rest="a b"`, args.Encode())
	assert.Equal(t, 2, args.Len())
}
