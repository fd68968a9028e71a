package command

import (
	"fmt"
	"strings"
)

// Group is a named bucket of commands.
type Group struct {
	ID   string
	Name string
	// Guarded groups can not be disabled as a whole.
	Guarded bool
}

// NewGroup validates the id and returns an empty group. Name defaults to id.
func NewGroup(id, name string, guarded bool) (*Group, error) {
	if id == "" || id != strings.ToLower(id) || strings.ContainsAny(id, " \t\n") {
		return nil, fmt.Errorf("%w: id %q must be non-empty lowercase", ErrInvalidGroup, id)
	}
	if name == "" {
		name = id
	}
	return &Group{ID: id, Name: name, Guarded: guarded}, nil
}
