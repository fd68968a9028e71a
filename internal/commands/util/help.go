package util

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/chat-commander/internal/command"
)

func newHelp(*command.Registry) (*command.Command, error) {
	var help *command.Command
	var err error
	help, err = command.New(command.Info{
		Name:        "help",
		Description: "Displays a list of available commands, or detailed information for a specified command.",
		Group:       GroupID,
		Args: []command.Argument{
			{Key: "command", Optional: true, Default: command.StaticDefault{Value: ""}},
		},
	}, command.RunnerFunc(func(ctx context.Context, c *command.Context, args command.Args) error {
		if name := args.String("command"); name != "" {
			cmd, ok := c.Registry.FindCommand(name)
			if !ok {
				return c.Reply(ctx, invalidCommandReply)
			}
			return c.Reply(ctx, describe(cmd, c.Prefix))
		}
		return c.Reply(ctx, listCommands(c.Registry, help.Usage("", c.Prefix)))
	}))
	return help, err
}

func describe(cmd *command.Command, prefix string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Name:* %s", cmd.Name)
	if cmd.Description != "" {
		fmt.Fprintf(&sb, "\n*Description:* %s", cmd.Description)
	}
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&sb, "\n*Aliases:* %s", strings.Join(cmd.Aliases, ", "))
	}
	fmt.Fprintf(&sb, "\n*Usage:* %s", cmd.Usage("", prefix))
	if cmd.GroupOnly {
		sb.WriteString("\n\n_This command can only be used in groups_")
	}
	return sb.String()
}

// listCommands renders the visible commands per group, in registration
// order. Ungrouped commands come last.
func listCommands(r *command.Registry, helpUsage string) string {
	var sb strings.Builder
	sb.WriteString("Here's a list of all my commands:\n")
	for _, g := range r.Groups() {
		if names := visibleNames(r.GroupCommands(g.ID)); len(names) > 0 {
			fmt.Fprintf(&sb, "\n*%s:* %s", g.Name, strings.Join(names, ", "))
		}
	}
	if names := visibleNames(r.GroupCommands("")); len(names) > 0 {
		fmt.Fprintf(&sb, "\n*Other:* %s", strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "\n\nYou can send %s to get info on a specific command.", helpUsage)
	return sb.String()
}

func visibleNames(cmds []*command.Command) []string {
	var names []string
	for _, cmd := range cmds {
		if !cmd.Hidden {
			names = append(names, cmd.Name)
		}
	}
	return names
}
