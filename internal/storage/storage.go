// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/keshon/chat-commander/datastore"
)

const defaultHistoryLimit = 20

type Storage struct {
	ds    *datastore.Store
	limit int

	// mu serialises read-modify-write of chat records.
	mu sync.Mutex
}

type Record struct {
	CommandHistory []CommandRecord `json:"cmd_history"`
}

// New opens the datastore at filePath. limit bounds the per-chat history.
func New(filePath string, limit int) (*Storage, error) {
	ds, err := datastore.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	keys, size := ds.Stats()
	log.Info().Str("path", filePath).Int("chats", keys).Int64("bytes", size).Msg("history store opened")
	return NewWithStore(ds, limit), nil
}

func NewWithStore(ds *datastore.Store, limit int) *Storage {
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	return &Storage{ds: ds, limit: limit}
}

// Limit is the number of records kept per chat.
func (s *Storage) Limit() int { return s.limit }

func (s *Storage) Close() error {
	return s.ds.Close()
}

func chatKey(chatID string) string { return "chat:" + chatID }

// getOrCreateChatRecord must be called with s.mu held.
func (s *Storage) getOrCreateChatRecord(chatID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(chatKey(chatID), &record); err != nil {
		return nil, err
	}
	if record.CommandHistory == nil {
		record.CommandHistory = []CommandRecord{}
	}
	return &record, nil
}
