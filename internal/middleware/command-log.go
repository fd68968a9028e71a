package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/storage"
)

// HistoryWriter records command invocations.
type HistoryWriter interface {
	AppendCommand(chatID string, rec storage.CommandRecord) error
}

// WithCommandLogger wraps a command to log its execution to the chat's
// history. Storage errors are logged and never fail the command.
func WithCommandLogger(w HistoryWriter) command.Middleware {
	return func(cmd *command.Command, next command.Runner) command.Runner {
		return command.RunnerFunc(func(ctx context.Context, c *command.Context, args command.Args) error {
			err := next.Run(ctx, c, args)

			logger := zerolog.Ctx(ctx)
			ch, chatErr := c.Message.Chat(ctx)
			if chatErr != nil {
				logger.Warn().Err(chatErr).Str("command", cmd.Name).Msg("skip command log")
				return err
			}

			rec := storage.CommandRecord{
				ChatID:  ch.ID(),
				Author:  c.Message.Author(),
				Command: cmd.Name,
				Args:    args.Encode(),
				Failed:  err != nil,
				At:      time.Now().UTC(),
			}
			if logErr := w.AppendCommand(ch.ID(), rec); logErr != nil {
				logger.Warn().Err(logErr).Str("command", cmd.Name).Msg("failed to log command")
			}
			return err
		})
	}
}
