package diaglog

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/timshannon/badgerhold/v4"
)

const storeKey = "debugLogs"

type storedLog struct {
	Entries []Entry
}

// BadgerLog persists the log in a badger database so it survives restarts.
// The whole list lives under one key; appends are read-modify-write and are
// serialised by mu.
type BadgerLog struct {
	mu    sync.Mutex
	store *badgerhold.Store
	opts  options
}

var _ Log = (*BadgerLog)(nil)

// OpenBadgerLog opens (or creates) the log database in dir. An empty dir keeps
// the database in memory.
func OpenBadgerLog(dir string, opts ...Option) (*BadgerLog, error) {
	storeOptions := badgerhold.DefaultOptions
	storeOptions.Logger = nil
	if dir == "" {
		storeOptions.InMemory = true
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("[OpenBadgerLog] failed to create directory: %w", err)
		}
		storeOptions.Dir = dir
		storeOptions.ValueDir = dir
	}

	store, err := badgerhold.Open(storeOptions)
	if err != nil {
		return nil, fmt.Errorf("[OpenBadgerLog] failed to open store: %w", err)
	}
	return &BadgerLog{store: store, opts: buildOptions(opts)}, nil
}

func (l *BadgerLog) Append(message string, data any) {
	entry := newEntry(l.opts.nowTime(), message, data)
	mirror(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.load()
	if err != nil {
		log.Err(err).Str("message", message).Msg("Failed to load diagnostic log, entry dropped")
		return
	}
	stored.Entries = append(stored.Entries, entry)
	if over := len(stored.Entries) - l.opts.capacity; over > 0 {
		stored.Entries = stored.Entries[over:]
	}
	if err := l.store.Upsert(storeKey, stored); err != nil {
		log.Err(err).Str("message", message).Msg("Failed to persist diagnostic log entry")
	}
}

func (l *BadgerLog) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.load()
	if err != nil {
		return nil, err
	}
	return stored.Entries, nil
}

func (l *BadgerLog) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Upsert(storeKey, &storedLog{Entries: []Entry{}}); err != nil {
		return fmt.Errorf("[BadgerLog Clear] %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (l *BadgerLog) Close() error {
	return l.store.Close()
}

func (l *BadgerLog) load() (*storedLog, error) {
	var stored storedLog
	err := l.store.Get(storeKey, &stored)
	if err == badgerhold.ErrNotFound {
		return &storedLog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[BadgerLog] failed to read log: %w", err)
	}
	return &stored, nil
}
