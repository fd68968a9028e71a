package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/console"
)

var showHidden bool

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	groupStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nameWidth   = 20
	usageWidth  = 36
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Print the registered commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cmdr, err := build(cfg, console.New(io.Discard), nil)
		if err != nil {
			return err
		}
		renderCommands(cmd.OutOrStdout(), cmdr.Registry, cfg.CommandPrefix(), showHidden)
		return nil
	},
}

func init() {
	commandsCmd.Flags().BoolVar(&showHidden, "all", false, "Include hidden commands")
}

// renderCommands prints one block per group with usage, flags and aliases.
func renderCommands(w io.Writer, reg *command.Registry, prefix string, all bool) {
	cmds := reg.Commands()
	if !all {
		cmds = visible(reg)
	}

	byGroup := make(map[string][]*command.Command)
	for _, cmd := range cmds {
		byGroup[cmd.Group] = append(byGroup[cmd.Group], cmd)
	}

	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Width(nameWidth).Render("Command"),
		headerStyle.Width(usageWidth).Render("Usage"),
		headerStyle.Render("Flags"),
	))

	titles := make([]string, 0, len(byGroup))
	ids := make([]string, 0, len(byGroup))
	for _, g := range reg.Groups() {
		titles = append(titles, g.Name)
		ids = append(ids, g.ID)
	}
	titles = append(titles, "Other")
	ids = append(ids, "")

	for i, id := range ids {
		group := byGroup[id]
		if len(group) == 0 {
			continue
		}
		state := ""
		if id != "" && !reg.IsEnabled(group[0].Name) && reg.CommandEnabled(group[0].Name) {
			state = mutedStyle.Render(" (disabled)")
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, groupStyle.Render(titles[i])+state)
		for _, cmd := range group {
			fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
				lipgloss.NewStyle().Width(nameWidth).Render(cmd.Name),
				lipgloss.NewStyle().Width(usageWidth).Render(strings.Trim(cmd.Usage("", prefix), "`")),
				flags(cmd),
			))
			if len(cmd.Aliases) > 0 {
				fmt.Fprintln(w, mutedStyle.Render("  aliases: "+strings.Join(cmd.Aliases, ", ")))
			}
		}
	}
}

func flags(cmd *command.Command) string {
	var out []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{cmd.OwnerOnly, "owner"},
		{cmd.AdminOnly, "admin"},
		{cmd.ClientAdminOnly, "bot-admin"},
		{cmd.GroupOnly, "group"},
		{cmd.ReplyOnly, "reply"},
		{cmd.Guarded, "guarded"},
		{cmd.Hidden, "hidden"},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return strings.Join(out, ",")
}
