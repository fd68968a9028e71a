// Package command holds the command model, the registry that resolves names
// and aliases, and the argument pipeline that binds free text to a command's
// formal arguments.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/chat-commander/internal/chat"
)

// Runner is the behaviour of a command.
type Runner interface {
	Run(ctx context.Context, c *Context, args Args) error
}

// RunnerFunc adapts a function to a Runner.
type RunnerFunc func(ctx context.Context, c *Context, args Args) error

func (f RunnerFunc) Run(ctx context.Context, c *Context, args Args) error { return f(ctx, c, args) }

// PermissionFunc replaces the built-in owner/admin permission check.
type PermissionFunc func(ctx context.Context, c *Context) (Permission, error)

// Context is what a command sees of the message that triggered it.
type Context struct {
	Message  chat.Message
	Registry *Registry
	Prefix   string
	// Self is the bot's own address.
	Self   string
	Owners Owners
}

// Reply answers the triggering message.
func (c *Context) Reply(ctx context.Context, text string) error {
	return c.Message.Reply(ctx, text)
}

// Info describes a command before validation.
type Info struct {
	Name    string
	Aliases []string
	// AutoAliases adds hyphen-less aliases for hyphenated names. Nil means true.
	AutoAliases *bool
	Description string
	Group       string
	// Format is the usage template. Derived from Args when empty.
	Format string

	ReplyOnly       bool
	GroupOnly       bool
	OwnerOnly       bool
	AdminOnly       bool
	ClientAdminOnly bool
	Hidden          bool
	// Guarded commands can not be disabled.
	Guarded bool
	// Unknown marks the fallback for unmatched command names.
	Unknown bool

	Args      []Argument
	Authorize PermissionFunc
}

// Command is a validated, registrable unit of bot behaviour.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Group       string
	Format      string

	ReplyOnly       bool
	GroupOnly       bool
	OwnerOnly       bool
	AdminOnly       bool
	ClientAdminOnly bool
	Hidden          bool
	Guarded         bool
	Unknown         bool

	Args      []*Argument
	Runner    Runner
	Authorize PermissionFunc
}

// New validates info and returns the command.
func New(info Info, runner Runner) (*Command, error) {
	if err := validateInfo(info); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: %s has no runner", ErrInvalidCommand, info.Name)
	}

	args, err := buildArguments(info.Args)
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", info.Name, err)
	}

	cmd := &Command{
		Name:            info.Name,
		Aliases:         append([]string(nil), info.Aliases...),
		Description:     info.Description,
		Group:           info.Group,
		Format:          info.Format,
		ReplyOnly:       info.ReplyOnly,
		GroupOnly:       info.GroupOnly,
		OwnerOnly:       info.OwnerOnly,
		AdminOnly:       info.AdminOnly,
		ClientAdminOnly: info.ClientAdminOnly,
		Hidden:          info.Hidden,
		Guarded:         info.Guarded,
		Unknown:         info.Unknown,
		Args:            args,
		Runner:          runner,
		Authorize:       info.Authorize,
	}

	if info.AutoAliases == nil || *info.AutoAliases {
		cmd.Aliases = withAutoAliases(cmd.Name, cmd.Aliases)
	}
	if cmd.Format == "" {
		cmd.Format = formatArgs(cmd.Args)
	}
	return cmd, nil
}

// MustNew is New for package-level command definitions.
func MustNew(info Info, runner Runner) *Command {
	cmd, err := New(info, runner)
	if err != nil {
		panic(err)
	}
	return cmd
}

func validateInfo(info Info) error {
	if info.Name == "" {
		return fmt.Errorf("%w: name must be set", ErrInvalidCommand)
	}
	if info.Name != strings.ToLower(info.Name) {
		return fmt.Errorf("%w: name %q must be lowercase", ErrInvalidCommand, info.Name)
	}
	if strings.ContainsAny(info.Name, " \t\n") {
		return fmt.Errorf("%w: name %q must not contain whitespace", ErrInvalidCommand, info.Name)
	}
	for _, alias := range info.Aliases {
		if alias == "" || alias != strings.ToLower(alias) {
			return fmt.Errorf("%w: alias %q must be non-empty and lowercase", ErrInvalidCommand, alias)
		}
	}
	if info.Description == "" {
		return fmt.Errorf("%w: %s has no description", ErrInvalidCommand, info.Name)
	}
	return nil
}

// validate re-checks a built command, so hand-assembled values obey the same
// rules as New.
func (c *Command) validate() error {
	if err := validateInfo(Info{Name: c.Name, Aliases: c.Aliases, Description: c.Description}); err != nil {
		return err
	}
	if c.Runner == nil {
		return fmt.Errorf("%w: %s has no runner", ErrInvalidCommand, c.Name)
	}
	if err := checkArguments(c.Args); err != nil {
		return fmt.Errorf("command %s: %w", c.Name, err)
	}
	return nil
}

// withAutoAliases appends the hyphen-less variant of the name and every
// hyphenated alias, skipping tokens that already exist.
func withAutoAliases(name string, aliases []string) []string {
	seen := map[string]struct{}{name: {}}
	for _, a := range aliases {
		seen[a] = struct{}{}
	}

	candidates := append([]string{name}, aliases...)
	for _, token := range candidates {
		if !strings.Contains(token, "-") {
			continue
		}
		stripped := strings.ReplaceAll(token, "-", "")
		if _, ok := seen[stripped]; ok {
			continue
		}
		seen[stripped] = struct{}{}
		aliases = append(aliases, stripped)
	}
	return aliases
}

func formatArgs(args []*Argument) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		open, closing := "<", ">"
		if arg.Optional || arg.HasDefault() {
			open, closing = "[", "]"
		}
		label := arg.Label
		if label == "" {
			label = arg.Key
		}
		if arg.Infinite {
			label += "..."
		}
		parts = append(parts, open+label+closing)
	}
	return strings.Join(parts, " ")
}

// Usage renders how to invoke the command. argString replaces the format
// when set; an empty prefix renders the bare name.
func (c *Command) Usage(argString, prefix string) string {
	format := ""
	switch {
	case argString != "":
		format = " " + argString
	case c.Format != "":
		format = " " + c.Format
	}
	usage := c.Name + format

	if prefix == "" {
		return "```" + usage + "```"
	}
	if len(prefix) > 1 && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	return "```" + prefix + usage + "```"
}

// Tokens returns the name followed by every alias.
func (c *Command) Tokens() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Matches reports whether token is the name or one of the aliases.
func (c *Command) Matches(token string) bool {
	if c.Name == token {
		return true
	}
	for _, a := range c.Aliases {
		if a == token {
			return true
		}
	}
	return false
}

// Build makes *Command usable as a Factory.
func (c *Command) Build(*Registry) (*Command, error) {
	if c == nil {
		return nil, ErrInvalidCommand
	}
	return c, nil
}

// Factory produces a command for a registry.
type Factory interface {
	Build(r *Registry) (*Command, error)
}

// FactoryFunc adapts a constructor to a Factory.
type FactoryFunc func(r *Registry) (*Command, error)

func (f FactoryFunc) Build(r *Registry) (*Command, error) {
	if f == nil {
		return nil, ErrInvalidCommand
	}
	return f(r)
}

// Owners is the set of addresses that own the bot.
type Owners map[string]struct{}

// NewOwners builds an owner set, ignoring empty addresses.
func NewOwners(addrs ...string) Owners {
	o := make(Owners, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			o[a] = struct{}{}
		}
	}
	return o
}

// IsOwner reports whether addr is an owner.
func (o Owners) IsOwner(addr string) bool {
	_, ok := o[addr]
	return ok
}
