package command

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCommand        = errors.New("invalid command")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidGroup          = errors.New("invalid group")
	ErrArgumentAfterInfinite = errors.New("no other argument may come after an infinite argument")
	ErrRequiredAfterOptional = errors.New("required arguments may not come after optional arguments")
	ErrUnknownCommandExists  = errors.New("an unknown command is already registered")
	ErrGroupNotRegistered    = errors.New("group is not registered")
	ErrCommandNotFound       = errors.New("command not found")
	ErrGuarded               = errors.New("command is guarded")
	ErrMissingArgument       = errors.New("missing argument")
)

// DuplicateCommandError is returned when a command name or alias is already
// taken by a registered command.
type DuplicateCommandError struct {
	Token    string
	Existing string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("a command with the name/alias %q is already registered (by %q)", e.Token, e.Existing)
}

// ArgumentError reports the first formal argument that could not be bound.
type ArgumentError struct {
	Arg *Argument
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q: %v", e.Arg.Key, ErrMissingArgument)
}

func (e *ArgumentError) Unwrap() error { return ErrMissingArgument }
