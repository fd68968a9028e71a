package util

import (
	"context"

	"github.com/keshon/chat-commander/internal/command"
)

func Ping() *command.Command {
	return command.MustNew(command.Info{
		Name:        "ping",
		Aliases:     []string{"check"},
		Description: "Checks if the bot is online.",
		Group:       GroupID,
	}, command.RunnerFunc(func(ctx context.Context, c *command.Context, _ command.Args) error {
		return c.Reply(ctx, "pong")
	}))
}
