package command

import (
	"context"
	"fmt"
)

// DefaultProvider supplies the value of an argument the user left out.
type DefaultProvider interface {
	Resolve(ctx context.Context, c *Context, cmd *Command) (any, error)
}

// StaticDefault always resolves to Value.
type StaticDefault struct {
	Value any
}

func (d StaticDefault) Resolve(context.Context, *Context, *Command) (any, error) {
	return d.Value, nil
}

// ComputedDefault derives the value from the triggering message and command.
type ComputedDefault func(ctx context.Context, c *Context, cmd *Command) (any, error)

func (f ComputedDefault) Resolve(ctx context.Context, c *Context, cmd *Command) (any, error) {
	return f(ctx, c, cmd)
}

// Argument is one formal parameter of a command.
type Argument struct {
	// Key names the value in the bound Args.
	Key string
	// Label is shown in usage strings. Defaults to Key.
	Label    string
	Optional bool
	// Infinite arguments consume every remaining token.
	Infinite bool
	Default  DefaultProvider
	// Error is replied when the value can not be used by the command.
	Error string
}

// HasDefault reports whether an omitted value can be filled in.
func (a *Argument) HasDefault() bool { return a.Default != nil }

// buildArguments copies the definitions, fills in labels and validates the
// ordering rules.
func buildArguments(infos []Argument) ([]*Argument, error) {
	args := make([]*Argument, 0, len(infos))
	for _, info := range infos {
		arg := info
		if arg.Label == "" {
			arg.Label = arg.Key
		}
		args = append(args, &arg)
	}
	if err := checkArguments(args); err != nil {
		return nil, err
	}
	return args, nil
}

// checkArguments enforces that keys are set and unique, that nothing follows
// an infinite argument and that required arguments precede optional ones.
func checkArguments(args []*Argument) error {
	seen := make(map[string]struct{}, len(args))
	hasInfinite, hasOptional := false, false

	for _, arg := range args {
		if arg == nil {
			return fmt.Errorf("%w: nil argument", ErrInvalidArgument)
		}
		if hasInfinite {
			return ErrArgumentAfterInfinite
		}
		if arg.Optional {
			hasOptional = true
		} else if hasOptional {
			return ErrRequiredAfterOptional
		}

		if arg.Key == "" {
			return fmt.Errorf("%w: key must be set", ErrInvalidArgument)
		}
		if _, dup := seen[arg.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidArgument, arg.Key)
		}
		seen[arg.Key] = struct{}{}

		if arg.Infinite {
			hasInfinite = true
		}
	}
	return nil
}
