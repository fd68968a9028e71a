package command

import (
	"context"
	"fmt"
)

// PermissionKind tags the outcome of a permission check.
type PermissionKind int

const (
	Allowed PermissionKind = iota
	// Denied is answered with the generic denial message.
	Denied
	// DeniedWithMessage is answered with Permission.Message verbatim.
	DeniedWithMessage
)

func (k PermissionKind) String() string {
	switch k {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case DeniedWithMessage:
		return "denied_with_message"
	}
	return fmt.Sprintf("PermissionKind(%d)", int(k))
}

// Permission is the result of a permission check.
type Permission struct {
	Kind    PermissionKind
	Message string
}

func Allow() Permission { return Permission{Kind: Allowed} }

func Deny() Permission { return Permission{Kind: Denied} }

func DenyWithMessage(msg string) Permission {
	return Permission{Kind: DeniedWithMessage, Message: msg}
}

// Allowed reports whether the command may run.
func (p Permission) Allowed() bool { return p.Kind == Allowed }

// HasPermission decides whether the author of c.Message may run the command.
// With ownerOverride set, owners pass every check, including owner-only.
func (cmd *Command) HasPermission(ctx context.Context, c *Context, ownerOverride bool) (Permission, error) {
	if cmd.Authorize != nil {
		return cmd.Authorize(ctx, c)
	}
	if !cmd.OwnerOnly && !cmd.AdminOnly {
		return Allow(), nil
	}

	author := c.Message.Author()
	isOwner := c.Owners.IsOwner(author)
	if ownerOverride && isOwner {
		return Allow(), nil
	}

	if cmd.OwnerOnly && (ownerOverride || !isOwner) {
		return DenyWithMessage(fmt.Sprintf("The ```%s``` command can only be used by the bot owner.", cmd.Name)), nil
	}

	if cmd.AdminOnly {
		ch, err := c.Message.Chat(ctx)
		if err != nil {
			return Permission{}, fmt.Errorf("fetch chat: %w", err)
		}
		if ch.IsGroup() {
			participants, err := ch.Participants(ctx)
			if err != nil {
				return Permission{}, fmt.Errorf("fetch participants: %w", err)
			}
			for _, p := range participants {
				if p.Address == author && !p.IsAdmin {
					return DenyWithMessage(fmt.Sprintf("The ```%s``` command can only be used by group admins.", cmd.Name)), nil
				}
			}
		}
	}

	return Allow(), nil
}
