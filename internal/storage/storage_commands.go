package storage

import "time"

// CommandRecord is one command invocation in a chat.
type CommandRecord struct {
	ChatID  string    `json:"chat_id"`
	Author  string    `json:"author"`
	Command string    `json:"command"`
	Args    string    `json:"args"`
	Failed  bool      `json:"failed,omitempty"`
	At      time.Time `json:"at"`
}

// AppendCommand adds rec to the chat's history, dropping the oldest entries
// beyond the limit.
func (s *Storage) AppendCommand(chatID string, rec CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateChatRecord(chatID)
	if err != nil {
		return err
	}

	if rec.ChatID == "" {
		rec.ChatID = chatID
	}
	record.CommandHistory = append(record.CommandHistory, rec)
	if over := len(record.CommandHistory) - s.limit; over > 0 {
		record.CommandHistory = record.CommandHistory[over:]
	}
	return s.ds.Put(chatKey(chatID), record)
}

// CommandHistory returns up to n most recent records, oldest first. n <= 0
// returns everything kept.
func (s *Storage) CommandHistory(chatID string, n int) ([]CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateChatRecord(chatID)
	if err != nil {
		return nil, err
	}

	history := record.CommandHistory
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return history, nil
}
