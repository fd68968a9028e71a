package command

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns the registered commands and groups and their enabled state.
// It is safe for concurrent use: dispatch only reads, registration and
// toggles take the write lock.
type Registry struct {
	mu sync.RWMutex

	commands []*Command
	byName   map[string]*Command
	unknown  *Command

	groups     map[string]*Group
	groupOrder []string

	disabled      map[string]bool
	groupDisabled map[string]bool

	middlewares []Middleware
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:        make(map[string]*Command),
		groups:        make(map[string]*Group),
		disabled:      make(map[string]bool),
		groupDisabled: make(map[string]bool),
	}
}

// Use appends middlewares wrapped around every command's runner, the first
// one outermost.
func (r *Registry) Use(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mws...)
}

// Runner returns cmd's runner wrapped in the registry middlewares.
func (r *Registry) Runner(cmd *Command) Runner {
	r.mu.RLock()
	mws := append([]Middleware(nil), r.middlewares...)
	r.mu.RUnlock()
	return ApplyMiddlewares(cmd, cmd.Runner, mws...)
}

// RegisterGroup adds a group, or renames an existing one with the same id.
func (r *Registry) RegisterGroup(g *Group) error {
	if g == nil {
		return fmt.Errorf("%w: nil group", ErrInvalidGroup)
	}
	if _, err := NewGroup(g.ID, g.Name, g.Guarded); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.groups[g.ID]; ok {
		if g.Name != "" {
			existing.Name = g.Name
		}
		return nil
	}
	if g.Name == "" {
		g.Name = g.ID
	}
	r.groups[g.ID] = g
	r.groupOrder = append(r.groupOrder, g.ID)
	return nil
}

// RegisterGroups registers each group in order and stops at the first error.
func (r *Registry) RegisterGroups(groups ...*Group) error {
	for _, g := range groups {
		if err := r.RegisterGroup(g); err != nil {
			return err
		}
	}
	return nil
}

// RegisterCommand builds the command, validates it and adds it. The name and
// every alias must be free; a conflict leaves the command unregistered.
func (r *Registry) RegisterCommand(f Factory) error {
	if isNilFactory(f) {
		return fmt.Errorf("%w: nil factory", ErrInvalidCommand)
	}
	cmd, err := f.Build(r)
	if err != nil {
		return err
	}
	if cmd == nil {
		return fmt.Errorf("%w: factory returned nil", ErrInvalidCommand)
	}
	if err := cmd.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range cmd.Tokens() {
		if owner := r.ownerOfLocked(token); owner != nil {
			return &DuplicateCommandError{Token: token, Existing: owner.Name}
		}
	}
	if cmd.Unknown && r.unknown != nil {
		return ErrUnknownCommandExists
	}

	if cmd.Group != "" {
		if _, ok := r.groups[cmd.Group]; !ok {
			return fmt.Errorf("%w: %q (command %s)", ErrGroupNotRegistered, cmd.Group, cmd.Name)
		}
	}

	r.commands = append(r.commands, cmd)
	r.byName[cmd.Name] = cmd
	if cmd.Unknown {
		r.unknown = cmd
	}

	log.Debug().Str("command", cmd.Name).Strs("aliases", cmd.Aliases).Msg("registered command")
	return nil
}

// RegisterCommands registers each factory in order. Registration is not
// transactional: commands before a failing one stay registered. With
// ignoreInvalid, nil factories are skipped instead of failing the batch.
func (r *Registry) RegisterCommands(fs []Factory, ignoreInvalid bool) error {
	for i, f := range fs {
		if isNilFactory(f) {
			if ignoreInvalid {
				continue
			}
			return fmt.Errorf("command #%d: %w", i, ErrInvalidCommand)
		}
		if err := r.RegisterCommand(f); err != nil {
			return fmt.Errorf("command #%d: %w", i, err)
		}
	}
	return nil
}

func isNilFactory(f Factory) bool {
	switch v := f.(type) {
	case nil:
		return true
	case *Command:
		return v == nil
	case FactoryFunc:
		return v == nil
	}
	return false
}

func (r *Registry) ownerOfLocked(token string) *Command {
	for _, c := range r.commands {
		if c.Matches(token) {
			return c
		}
	}
	return nil
}

// FindCommand resolves a name or alias, ignoring case. Names win over
// aliases; among aliases the earliest registered command wins.
func (r *Registry) FindCommand(search string) (*Command, bool) {
	if search == "" {
		return nil, false
	}
	token := strings.ToLower(search)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.byName[token]; ok {
		return cmd, true
	}
	for _, cmd := range r.commands {
		for _, a := range cmd.Aliases {
			if a == token {
				return cmd, true
			}
		}
	}
	return nil, false
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.commands...)
}

// GroupCommands returns the commands of a group in registration order. An
// empty id selects the ungrouped commands.
func (r *Registry) GroupCommands(id string) []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Command
	for _, cmd := range r.commands {
		if cmd.Group == id {
			out = append(out, cmd)
		}
	}
	return out
}

// Group returns the group with the given id.
func (r *Registry) Group(id string) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	return g, ok
}

// Groups returns the registered groups in registration order.
func (r *Registry) Groups() []*Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Group, 0, len(r.groupOrder))
	for _, id := range r.groupOrder {
		out = append(out, r.groups[id])
	}
	return out
}

// UnknownCommand returns the fallback command, if one is registered.
func (r *Registry) UnknownCommand() *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unknown
}

// IsEnabled reports whether the named command and its group are enabled.
// Unregistered names report false.
func (r *Registry) IsEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	if !ok {
		return false
	}
	if r.disabled[cmd.Name] {
		return false
	}
	return cmd.Group == "" || !r.groupDisabled[cmd.Group]
}

// CommandEnabled reports the command's own global flag, ignoring its group.
func (r *Registry) CommandEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return ok && !r.disabled[cmd.Name]
}

// SetEnabled toggles a command globally. Guarded commands can not be
// toggled.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	if cmd.Guarded {
		return fmt.Errorf("%w: %s", ErrGuarded, name)
	}
	if enabled {
		delete(r.disabled, cmd.Name)
	} else {
		r.disabled[cmd.Name] = true
	}
	log.Info().Str("command", cmd.Name).Bool("enabled", enabled).Msg("command state changed")
	return nil
}

// SetGroupEnabled toggles every command of a group. Guarded groups can not be
// toggled.
func (r *Registry) SetGroupEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrGroupNotRegistered, id)
	}
	if g.Guarded {
		return fmt.Errorf("%w: group %s", ErrGuarded, id)
	}
	if enabled {
		delete(r.groupDisabled, id)
	} else {
		r.groupDisabled[id] = true
	}
	log.Info().Str("group", id).Bool("enabled", enabled).Msg("group state changed")
	return nil
}
