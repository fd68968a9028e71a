package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/chat-commander/internal/command"
)

// RunObserver receives the result and duration of each command run.
type RunObserver interface {
	ObserveRun(command string, took time.Duration, err error)
}

func WithMetrics(o RunObserver) command.Middleware {
	return func(cmd *command.Command, next command.Runner) command.Runner {
		return command.RunnerFunc(func(ctx context.Context, c *command.Context, args command.Args) error {
			start := time.Now()
			err := next.Run(ctx, c, args)
			o.ObserveRun(cmd.Name, time.Since(start), err)
			return err
		})
	}
}

// WithTiming logs every run with its duration at debug level.
func WithTiming() command.Middleware {
	return func(cmd *command.Command, next command.Runner) command.Runner {
		return command.RunnerFunc(func(ctx context.Context, c *command.Context, args command.Args) error {
			start := time.Now()
			err := next.Run(ctx, c, args)
			zerolog.Ctx(ctx).Debug().
				Str("command", cmd.Name).
				Dur("took", time.Since(start)).
				Bool("failed", err != nil).
				Msg("command finished")
			return err
		})
	}
}
