package diaglog

import "sync"

// RingLog is an in-memory Log with fixed capacity.
type RingLog struct {
	mu       sync.RWMutex
	entries  []Entry
	head     int // index where the next write goes once full
	capacity int
	opts     options
}

var _ Log = (*RingLog)(nil)

// NewRingLog creates an empty in-memory log.
func NewRingLog(opts ...Option) *RingLog {
	o := buildOptions(opts)
	return &RingLog{
		entries:  make([]Entry, 0, o.capacity),
		capacity: o.capacity,
		opts:     o,
	}
}

func (l *RingLog) Append(message string, data any) {
	entry := newEntry(l.opts.nowTime(), message, data)
	mirror(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, entry)
	} else {
		l.entries[l.head] = entry
	}
	l.head = (l.head + 1) % l.capacity
}

// Entries returns the retained entries, oldest first.
func (l *RingLog) Entries() ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	if len(l.entries) < l.capacity {
		return append(out, l.entries...), nil
	}
	out = append(out, l.entries[l.head:]...)
	return append(out, l.entries[:l.head]...), nil
}

func (l *RingLog) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.head = 0
	return nil
}
