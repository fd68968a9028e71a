package util

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/keshon/chat-commander/internal/command"
)

const (
	maxMessageLength      = 2000
	codeLeftBlockWrapper  = "```md"
	codeRightBlockWrapper = "```"
)

var maxContentLength = maxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2

// History lists the latest command invocations in the current chat.
func History(h HistoryReader) *command.Command {
	return command.MustNew(command.Info{
		Name:        "history",
		Aliases:     []string{"cmd-log"},
		Description: "Shows the latest commands used in this chat.",
		Group:       GroupID,
		AdminOnly:   true,
		GroupOnly:   true,
		Args: []command.Argument{{
			Key:      "count",
			Optional: true,
			Default: command.ComputedDefault(func(context.Context, *command.Context, *command.Command) (any, error) {
				return h.Limit(), nil
			}),
		}},
	}, command.RunnerFunc(func(ctx context.Context, c *command.Context, args command.Args) error {
		n, err := strconv.Atoi(args.String("count"))
		if err != nil || n < 1 || n > h.Limit() {
			return c.Reply(ctx, fmt.Sprintf("The count must be a number between 1 and %d.", h.Limit()))
		}

		ch, err := c.Message.Chat(ctx)
		if err != nil {
			return err
		}
		records, err := h.CommandHistory(ch.ID(), n)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if len(records) == 0 {
			return c.Reply(ctx, "No commands have been used here yet.")
		}

		var builder strings.Builder
		fmt.Fprintf(&builder, "%-19s\t%-15s\t%s\n", "# Datetime", "# Author", "# Command")

		// latest first
		for i := len(records) - 1; i >= 0; i-- {
			r := records[i]
			mark := ""
			if r.Failed {
				mark = " (failed)"
			}
			line := fmt.Sprintf("%-19s\t%-15s\t%s%s\n",
				r.At.Format("2006-01-02 15:04:05"), r.Author, r.Command, mark)
			if builder.Len()+len(line) > maxContentLength {
				break
			}
			builder.WriteString(line)
		}

		return c.Reply(ctx, codeLeftBlockWrapper+"\n"+builder.String()+codeRightBlockWrapper)
	}))
}
