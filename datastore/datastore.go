// Package datastore is a small JSON file backed key/value store with atomic
// writes, periodic autosave and rotating backups.
package datastore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrClosed   = errors.New("datastore is closed")
	ErrTooLarge = errors.New("datastore size limit exceeded")
)

// Config holds configuration options for the Store.
type Config struct {
	FilePath string
	// AutoSaveInterval of zero disables the background save loop.
	AutoSaveInterval time.Duration
	// MaxSize caps the encoded size of all values in bytes. Zero is unlimited.
	MaxSize     int64
	BackupCount int
	Logger      zerolog.Logger
}

// DefaultConfig returns the configuration used by Open.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		MaxSize:          100 * 1024 * 1024,
		BackupCount:      3,
		Logger:           log.With().Str("component", "datastore").Logger(),
	}
}

// Store keeps every value as encoded JSON in memory and flushes the whole
// map to one file.
type Store struct {
	cfg Config

	mu           sync.RWMutex
	data         map[string]json.RawMessage
	size         int64
	lastChecksum string
	closed       bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open loads filePath, creating it when missing, with the default config.
func Open(filePath string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(filePath))
}

func OpenWithConfig(cfg Config) (*Store, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	s := &Store{
		cfg:  cfg,
		data: make(map[string]json.RawMessage),
		stop: make(chan struct{}),
	}

	switch _, err := os.Stat(cfg.FilePath); {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.writeFileAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("create empty file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", cfg.FilePath, err)
	default:
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	if cfg.AutoSaveInterval > 0 {
		s.wg.Add(1)
		go s.autoSave()
	}
	return s, nil
}

// Put encodes v and stores it under key.
func (s *Store) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	newSize := s.size - int64(len(s.data[key])) + int64(len(raw))
	if s.cfg.MaxSize > 0 && newSize > s.cfg.MaxSize {
		return fmt.Errorf("put %q: %w", key, ErrTooLarge)
	}
	s.data[key] = raw
	s.size = newSize
	return nil
}

// Get decodes the value under key into out and reports whether it existed.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return false, ErrClosed
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Save flushes to disk now.
func (s *Store) Save() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return s.save()
}

// Close stops the autosave loop and writes a final snapshot.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	return s.save()
}

// Stats reports the key count and encoded size.
func (s *Store) Stats() (keys int, size int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), s.size
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	sum := checksum(data)
	if sum == s.lastChecksum {
		return nil
	}

	if s.cfg.BackupCount > 0 {
		if err := s.backup(); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("backup failed")
		}
	}
	if err := s.writeFileAtomic(data); err != nil {
		return err
	}
	if err := s.verify(sum); err != nil {
		return err
	}
	s.lastChecksum = sum
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.cfg.FilePath, err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", s.cfg.FilePath, err)
	}
	if m == nil {
		m = make(map[string]json.RawMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = m
	s.size = 0
	for _, raw := range m {
		s.size += int64(len(raw))
	}
	s.lastChecksum = checksum(data)
	return nil
}

func (s *Store) writeFileAtomic(data []byte) error {
	tmp := s.cfg.FilePath + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) verify(want string) error {
	data, err := os.ReadFile(s.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if checksum(data) != want {
		return errors.New("verify: checksum mismatch")
	}
	return nil
}

// backup copies the current file aside and prunes the oldest copies.
func (s *Store) backup() error {
	src, err := os.Open(s.cfg.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", s.cfg.FilePath, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	s.pruneBackups()
	return nil
}

func (s *Store) pruneBackups() {
	matches, err := filepath.Glob(s.cfg.FilePath + ".backup.*")
	if err != nil || len(matches) <= s.cfg.BackupCount {
		return
	}
	// Names embed the timestamp, so lexical order is age order.
	slices.Sort(matches)
	for _, old := range matches[:len(matches)-s.cfg.BackupCount] {
		if err := os.Remove(old); err != nil {
			s.cfg.Logger.Warn().Err(err).Str("file", old).Msg("remove backup")
		}
	}
}

func (s *Store) autoSave() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.save(); err != nil {
				s.cfg.Logger.Error().Err(err).Msg("auto-save failed")
			}
		}
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
