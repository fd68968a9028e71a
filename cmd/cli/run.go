package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keshon/chat-commander/internal/console"
	"github.com/keshon/chat-commander/internal/storage"
)

var noHistory bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read messages from stdin and answer on stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var store *storage.Storage
		if !noHistory {
			store, err = storage.New(cfg.StoragePath, cfg.HistoryLimit)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		client := console.New(cmd.OutOrStdout(),
			console.WithAuthor(author),
			console.WithAdmins(cfg.ConsoleAdmins...),
		)
		cmdr, err := build(cfg, client, store)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Str("prefix", cfg.CommandPrefix()).Str("as", author).Msg("console ready, Ctrl+D to quit")
		err = cmdr.Run(ctx, client.Messages(ctx, cmd.InOrStdin()))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record command history")
}
