package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const membersPageSize = 1000

// IsAdministrator reports whether a member owns the guild or holds a role
// with administrator permission.
func IsAdministrator(guild *discordgo.Guild, member *discordgo.Member) bool {
	if guild == nil || member == nil || member.User == nil {
		return false
	}
	if member.User.ID == guild.OwnerID {
		return true
	}

	perms := make(map[string]int64, len(guild.Roles))
	for _, r := range guild.Roles {
		perms[r.ID] = r.Permissions
	}
	for _, roleID := range member.Roles {
		if perms[roleID]&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// guild prefers the gateway state and falls back to REST.
func (b *Bot) guild(guildID string) (*discordgo.Guild, error) {
	if b.state != nil {
		if g, err := b.state.Guild(guildID); err == nil && g != nil {
			return g, nil
		}
	}
	g, err := b.api.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}
	return g, nil
}

// members returns the cached member list, paging through REST when the
// state holds none.
func (b *Bot) members(guild *discordgo.Guild) ([]*discordgo.Member, error) {
	if len(guild.Members) > 0 {
		return guild.Members, nil
	}

	var all []*discordgo.Member
	after := ""
	for {
		page, err := b.api.GuildMembers(guild.ID, after, membersPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch members of %s: %w", guild.ID, err)
		}
		all = append(all, page...)
		if len(page) < membersPageSize || page[len(page)-1].User == nil {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}
