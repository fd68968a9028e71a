// Package util holds the built-in commands every bot ships with.
package util

import (
	"github.com/keshon/chat-commander/internal/command"
	"github.com/keshon/chat-commander/internal/storage"
)

const (
	GroupID   = "util"
	GroupName = "Utility"

	invalidCommandReply = "That's not a valid command!"
)

// HistoryReader serves the history command.
type HistoryReader interface {
	CommandHistory(chatID string, n int) ([]storage.CommandRecord, error)
	Limit() int
}

// Group returns the guarded group the util commands live in.
func Group() *command.Group {
	g, _ := command.NewGroup(GroupID, GroupName, true)
	return g
}

// Commands returns the util command factories. history is skipped when h is
// nil.
func Commands(h HistoryReader) []command.Factory {
	fs := []command.Factory{
		Ping(),
		command.FactoryFunc(newHelp),
		EnableCommand(),
		DisableCommand(),
	}
	if h != nil {
		fs = append(fs, History(h))
	}
	return fs
}
