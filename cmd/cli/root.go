package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/commander"
	"github.com/keshon/chat-commander/internal/config"
	"github.com/keshon/chat-commander/internal/console"
	"github.com/keshon/chat-commander/internal/logging"
	"github.com/keshon/chat-commander/internal/storage"
)

var (
	logLevel string
	prefix   string
	author   string
)

var rootCmd = &cobra.Command{
	Use:   "chat-commander",
	Short: "Chat command router for the terminal",
	Long: `chat-commander runs the command router against a local console chat.
Every input line is a message; "> " marks a reply and "/as <address>"
switches the sender.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error). Overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "Command prefix. Overrides PREFIX")
	rootCmd.PersistentFlags().StringVar(&author, "as", "me", "Address to send messages from")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commandsCmd)
}

// loadConfig reads the environment and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if prefix != "" {
		cfg.Prefix = prefix
		cfg.MentionOnly = false
	}
	logging.Setup(cfg.LogLevel, os.Stderr)
	return cfg, nil
}

// build wires a commander on a console client. store may be nil.
func build(cfg *config.Config, client *console.Client, store *storage.Storage) (*commander.Commander, error) {
	groups, err := config.LoadGroups(cfg.GroupsPath)
	if err != nil {
		return nil, err
	}
	cmdr, err := commander.New(commander.Options{
		Config:  cfg,
		Client:  client,
		Storage: store,
		Groups:  groups,
	})
	if err != nil {
		return nil, fmt.Errorf("build commander: %w", err)
	}
	return cmdr, nil
}

func visible(reg *command.Registry) []*command.Command {
	var out []*command.Command
	for _, cmd := range reg.Commands() {
		if !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}
