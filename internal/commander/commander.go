// Package commander assembles the registry, the built-in commands, the
// middleware chain and the dispatcher for a chat transport.
package commander

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/keshon/chat-commander/internal/chat"
	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/commands/util"
	"github.com/keshon/chat-commander/internal/config"
	"github.com/keshon/chat-commander/internal/dispatcher"
	"github.com/keshon/chat-commander/internal/metrics"
	"github.com/keshon/chat-commander/internal/middleware"
	"github.com/keshon/chat-commander/internal/storage"
)

// Options configure New. Storage and Metrics are optional.
type Options struct {
	Config  *config.Config
	Client  chat.Client
	Storage *storage.Storage
	Metrics *metrics.Metrics
	Groups  []config.GroupSpec
	// Commands are registered after the util commands.
	Commands []command.Factory
}

type Commander struct {
	Registry   *command.Registry
	Dispatcher *dispatcher.Dispatcher
}

func New(opts Options) (*Commander, error) {
	if opts.Config == nil || opts.Client == nil {
		return nil, fmt.Errorf("commander needs a config and a client")
	}

	reg := command.NewRegistry()
	reg.Use(middleware.WithTiming())
	if opts.Metrics != nil {
		reg.Use(middleware.WithMetrics(opts.Metrics))
	}
	if opts.Storage != nil {
		reg.Use(middleware.WithCommandLogger(opts.Storage))
	}

	if err := reg.RegisterGroup(util.Group()); err != nil {
		return nil, err
	}
	for _, gs := range opts.Groups {
		g, err := command.NewGroup(gs.ID, gs.Name, gs.Guarded)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gs.ID, err)
		}
		if err := reg.RegisterGroup(g); err != nil {
			return nil, err
		}
	}

	var history util.HistoryReader
	if opts.Storage != nil {
		history = opts.Storage
	}
	if err := reg.RegisterCommands(util.Commands(history), false); err != nil {
		return nil, fmt.Errorf("register util commands: %w", err)
	}
	if err := reg.RegisterCommands(opts.Commands, true); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	for _, gs := range opts.Groups {
		if !gs.Disabled {
			continue
		}
		if err := reg.SetGroupEnabled(gs.ID, false); err != nil {
			return nil, fmt.Errorf("disable group %q: %w", gs.ID, err)
		}
	}

	dopts := []dispatcher.Option{
		dispatcher.WithPrefix(opts.Config.CommandPrefix()),
		dispatcher.WithOwners(command.NewOwners(opts.Config.Owners...)),
		dispatcher.WithOwnerOverride(opts.Config.OwnerOverride),
	}
	if opts.Metrics != nil {
		dopts = append(dopts, dispatcher.WithObserver(opts.Metrics))
	}

	log.Info().
		Int("commands", len(reg.Commands())).
		Int("groups", len(reg.Groups())).
		Str("prefix", opts.Config.CommandPrefix()).
		Msg("commander ready")

	return &Commander{
		Registry:   reg,
		Dispatcher: dispatcher.New(reg, opts.Client, dopts...),
	}, nil
}

// Run dispatches msgs until the channel closes or ctx is done.
func (c *Commander) Run(ctx context.Context, msgs <-chan chat.Message) error {
	return c.Dispatcher.Run(ctx, msgs)
}
