package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	// Prefix starts a command. Ignored when MentionOnly is set.
	Prefix      string `env:"PREFIX" envDefault:"!"`
	MentionOnly bool   `env:"MENTION_ONLY"`

	Owners        []string `env:"OWNERS" envSeparator:","`
	OwnerOverride bool     `env:"OWNER_OVERRIDE" envDefault:"true"`

	DiscordToken string `env:"DISCORD_TOKEN"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	GroupsPath   string `env:"GROUPS_PATH" envDefault:"groups.yaml"`
	HistoryLimit int    `env:"HISTORY_LIMIT" envDefault:"20"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:":9090"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFile adds a rotating JSON log when set.
	LogFile string `env:"LOG_FILE"`

	// ConsoleAdmins are treated as group admins by the console transport.
	ConsoleAdmins []string `env:"CONSOLE_ADMINS" envSeparator:","`
}

// New loads .env, when present, and parses the process environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, falling back to system environment variables")
	}
	return parse(env.Options{})
}

// FromMap parses cfg from the given variables instead of the environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Owners = trimAll(cfg.Owners)
	cfg.ConsoleAdmins = trimAll(cfg.ConsoleAdmins)
	if cfg.HistoryLimit < 1 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", cfg.HistoryLimit)
	}
	return cfg, nil
}

// Validate checks what the Discord binary needs on top of the defaults.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	return nil
}

// CommandPrefix is the prefix handed to the dispatcher. Empty means only the
// mention form triggers commands.
func (c *Config) CommandPrefix() string {
	if c.MentionOnly {
		return ""
	}
	return c.Prefix
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
