package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T, limit int) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path, limit)
	require.NoError(t, err)
	return s, path
}

func TestCommandHistory(t *testing.T) {
	s, _ := newStorage(t, 3)
	defer s.Close()

	history, err := s.CommandHistory("c1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	for i := range 5 {
		require.NoError(t, s.AppendCommand("c1", CommandRecord{Author: "u", Command: fmt.Sprintf("cmd%d", i)}))
	}
	require.NoError(t, s.AppendCommand("c2", CommandRecord{Command: "other"}))

	history, err = s.CommandHistory("c1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "cmd2", history[0].Command)
	assert.Equal(t, "cmd4", history[2].Command)
	assert.Equal(t, "c1", history[0].ChatID)

	history, err = s.CommandHistory("c1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd3", "cmd4"}, []string{history[0].Command, history[1].Command})

	history, err = s.CommandHistory("c2", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCommandHistory_Persists(t *testing.T) {
	s, path := newStorage(t, 10)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.AppendCommand("c1", CommandRecord{Author: "u", Command: "ping", At: at}))
	require.NoError(t, s.Close())

	reopened, err := New(path, 10)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.CommandHistory("c1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ping", history[0].Command)
	assert.True(t, at.Equal(history[0].At))
}

func TestAppendCommand_Concurrent(t *testing.T) {
	s, _ := newStorage(t, 100)
	defer s.Close()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			assert.NoError(t, s.AppendCommand("c1", CommandRecord{Command: fmt.Sprint(i)}))
		})
	}
	wg.Wait()

	history, err := s.CommandHistory("c1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 50)
}

func TestNewWithStore_DefaultLimit(t *testing.T) {
	s, _ := newStorage(t, 0)
	defer s.Close()
	assert.Equal(t, defaultHistoryLimit, s.limit)
}
