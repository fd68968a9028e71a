// Package dispatcher turns inbound chat messages into command invocations.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/chat-commander/internal/chat"
	"github.com/keshon/chat-commander/internal/command"
)

const runFailedReply = "There was an error trying to execute the command!"

// Observer receives the outcome of every dispatched message.
type Observer interface {
	ObserveDispatch(outcome string)
}

// Dispatcher matches messages against the prefix and mention forms and runs
// the resolved command through the gate checks and the argument pipeline.
type Dispatcher struct {
	registry *command.Registry
	client   chat.Client

	owners        command.Owners
	ownerOverride bool
	observer      Observer

	mu       sync.RWMutex
	prefix   string
	self     string
	selfOnce bool

	patterns patternCache
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithPrefix(prefix string) Option {
	return func(d *Dispatcher) { d.prefix = prefix }
}

func WithOwners(owners command.Owners) Option {
	return func(d *Dispatcher) { d.owners = owners }
}

// WithOwnerOverride lets owners pass every permission check.
func WithOwnerOverride(enabled bool) Option {
	return func(d *Dispatcher) { d.ownerOverride = enabled }
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// New returns a dispatcher over reg. client supplies the bot's own address on
// first use. The default prefix is "!" and owners override permissions.
func New(reg *command.Registry, client chat.Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      reg,
		client:        client,
		owners:        command.NewOwners(),
		ownerOverride: true,
		prefix:        "!",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Prefix returns the current command prefix.
func (d *Dispatcher) Prefix() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prefix
}

// SetPrefix changes the prefix. An empty prefix leaves only the mention form.
func (d *Dispatcher) SetPrefix(prefix string) {
	d.mu.Lock()
	d.prefix = prefix
	d.mu.Unlock()
}

// SetSelf sets the bot's own address, skipping the client lookup.
func (d *Dispatcher) SetSelf(addr string) {
	d.mu.Lock()
	d.self, d.selfOnce = addr, true
	d.mu.Unlock()
}

// identity returns the prefix and the bot's own address. A failed lookup
// yields an empty address, which leaves only the prefix form, and is retried
// on the next message.
func (d *Dispatcher) identity(ctx context.Context) (prefix, self string) {
	d.mu.RLock()
	prefix, self, known := d.prefix, d.self, d.selfOnce
	d.mu.RUnlock()
	if known || d.client == nil {
		return prefix, self
	}

	self, err := d.client.Self(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("resolve self address")
		return prefix, ""
	}
	d.SetSelf(self)
	return prefix, self
}

// HandleMessage dispatches one message and reports how it ended. It never
// panics and never returns command errors; those become replies and logs.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg chat.Message) Outcome {
	logger := log.With().Str("dispatch", uuid.NewString()).Str("message", msg.ID()).Logger()
	ctx = logger.WithContext(ctx)

	outcome := d.safeHandle(ctx, msg)
	if d.observer != nil {
		d.observer.ObserveDispatch(outcome.String())
	}
	logger.Debug().Str("outcome", outcome.String()).Msg("dispatched")
	return outcome
}

// safeHandle recovers panics raised anywhere in the pipeline, including
// argument defaults and custom permission checks.
func (d *Dispatcher) safeHandle(ctx context.Context, msg chat.Message) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("dispatch panicked")
			d.reply(ctx, msg, runFailedReply)
			outcome = OutcomeFailed
		}
	}()
	return d.handle(ctx, msg)
}

func (d *Dispatcher) handle(ctx context.Context, msg chat.Message) Outcome {
	prefix, self := d.identity(ctx)
	m, ok := match(d.patterns.get(prefix, self), msg.Body())
	if !ok {
		return OutcomeNotCommand
	}

	argString := m.ArgString
	cmd, found := d.registry.FindCommand(m.Token)
	if !found {
		cmd = d.registry.UnknownCommand()
		if cmd == nil {
			return OutcomeNotFound
		}
		argString = m.Token + m.ArgString
	}

	cc := &command.Context{
		Message:  msg,
		Registry: d.registry,
		Prefix:   prefix,
		Self:     self,
		Owners:   d.owners,
	}
	outcome := d.gateAndRun(ctx, cc, cmd, argString)
	if !found && outcome == OutcomeRan {
		return OutcomeUnknown
	}
	return outcome
}

func (d *Dispatcher) gateAndRun(ctx context.Context, cc *command.Context, cmd *command.Command, argString string) Outcome {
	logger := zerolog.Ctx(ctx).With().Str("command", cmd.Name).Logger()
	ctx = logger.WithContext(ctx)
	msg := cc.Message

	if !d.registry.IsEnabled(cmd.Name) {
		d.reply(ctx, msg, fmt.Sprintf("The ```%s``` command is disabled.", cmd.Name))
		return OutcomeDisabled
	}

	if cmd.ReplyOnly && !msg.HasQuotedMessage() {
		d.reply(ctx, msg, fmt.Sprintf("The ```%s``` command can only be used when replying to a message.", cmd.Name))
		return OutcomeReplyOnly
	}

	ch, err := msg.Chat(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("fetch chat")
		d.reply(ctx, msg, runFailedReply)
		return OutcomeFailed
	}

	if cmd.GroupOnly && !ch.IsGroup() {
		d.reply(ctx, msg, fmt.Sprintf("The ```%s``` command can only be used in a group chat.", cmd.Name))
		return OutcomeGroupOnly
	}

	perm, err := cmd.HasPermission(ctx, cc, d.ownerOverride)
	if err != nil {
		logger.Error().Err(err).Msg("permission check")
		d.reply(ctx, msg, runFailedReply)
		return OutcomeFailed
	}
	switch perm.Kind {
	case command.Denied:
		d.reply(ctx, msg, fmt.Sprintf("You do not have permission to use the ```%s``` command.", cmd.Name))
		return OutcomeDenied
	case command.DeniedWithMessage:
		d.reply(ctx, msg, perm.Message)
		return OutcomeDenied
	}

	if cmd.ClientAdminOnly && ch.IsGroup() {
		admin, err := isAdmin(ctx, ch, cc.Self)
		if err != nil {
			logger.Error().Err(err).Msg("client admin check")
			d.reply(ctx, msg, runFailedReply)
			return OutcomeFailed
		}
		if !admin {
			d.reply(ctx, msg, fmt.Sprintf("The ```%s``` command requires me to be a group admin.", cmd.Name))
			return OutcomeClientAdmin
		}
	}

	tokens := command.ParseArgs(argString, cmd.Args)
	args, err := command.ObtainArgs(ctx, cc, cmd, tokens)
	if err != nil {
		var argErr *command.ArgumentError
		if !errors.As(err, &argErr) {
			logger.Error().Err(err).Msg("resolve argument default")
			d.reply(ctx, msg, runFailedReply)
			return OutcomeFailed
		}
		reply := "Invalid arguments provided. Usage: " + cmd.Usage("", cc.Prefix)
		if argErr.Arg.Error != "" {
			reply = argErr.Arg.Error
		}
		d.reply(ctx, msg, reply)
		return OutcomeInvalidArgs
	}

	if err := d.invoke(ctx, cmd, cc, args); err != nil {
		logger.Error().Err(err).Str("args", args.Encode()).Msg("command failed")
		d.reply(ctx, msg, runFailedReply)
		return OutcomeFailed
	}
	return OutcomeRan
}

// invoke runs the command behind the registry middlewares and turns a panic
// into an error.
func (d *Dispatcher) invoke(ctx context.Context, cmd *command.Command, cc *command.Context, args command.Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Bytes("stack", debug.Stack()).Msg("command panicked")
			err = fmt.Errorf("panic in %s: %v", cmd.Name, r)
		}
	}()
	return d.registry.Runner(cmd).Run(ctx, cc, args)
}

func (d *Dispatcher) reply(ctx context.Context, msg chat.Message, text string) {
	if err := msg.Reply(ctx, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("reply failed")
	}
}

func isAdmin(ctx context.Context, ch chat.Chat, addr string) (bool, error) {
	participants, err := ch.Participants(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if p.Address == addr {
			return p.IsAdmin, nil
		}
	}
	return false, nil
}

// Run dispatches every message from msgs on its own goroutine until msgs is
// closed or ctx is done, then waits for in-flight messages.
func (d *Dispatcher) Run(ctx context.Context, msgs <-chan chat.Message) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			wg.Go(func() { d.HandleMessage(ctx, msg) })
		}
	}
}
