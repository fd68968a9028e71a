package util

import (
	"context"
	"fmt"

	"github.com/keshon/chat-commander/internal/command"
)

func EnableCommand() *command.Command {
	return command.MustNew(command.Info{
		Name:        "enable-command",
		Aliases:     []string{"enable", "cmd-on", "command-on"},
		Description: "Enables a command globally.",
		Group:       GroupID,
		Hidden:      true,
		OwnerOnly:   true,
		Guarded:     true,
		Args:        []command.Argument{{Key: "commandName", Label: "command"}},
	}, toggle(true))
}

func DisableCommand() *command.Command {
	return command.MustNew(command.Info{
		Name:        "disable-command",
		Aliases:     []string{"disable", "cmd-off", "command-off"},
		Description: "Disables a command globally.",
		Group:       GroupID,
		OwnerOnly:   true,
		Guarded:     true,
		Args:        []command.Argument{{Key: "commandName", Label: "command"}},
	}, toggle(false))
}

func toggle(enable bool) command.RunnerFunc {
	verb, state := "disable", "disabled"
	if enable {
		verb, state = "enable", "enabled"
	}

	return func(ctx context.Context, c *command.Context, args command.Args) error {
		name := args.String("commandName")
		cmd, ok := c.Registry.FindCommand(name)
		if !ok {
			return c.Reply(ctx, invalidCommandReply)
		}
		if c.Registry.CommandEnabled(cmd.Name) == enable {
			return c.Reply(ctx, fmt.Sprintf("The ```%s``` command is already %s.", name, state))
		}
		if cmd.Guarded {
			return c.Reply(ctx, fmt.Sprintf("You cannot %s the ```%s``` command.", verb, name))
		}
		if err := c.Registry.SetEnabled(cmd.Name, enable); err != nil {
			return err
		}
		return c.Reply(ctx, fmt.Sprintf("The ```%s``` has been %s.", name, state))
	}
}
