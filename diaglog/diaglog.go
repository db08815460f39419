// Package diaglog keeps a bounded record of what the relay did, readable by the
// submitter for debugging. Oldest entries are evicted first.
package diaglog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCapacity is the number of entries retained before eviction starts.
const DefaultCapacity = 50

const logPrefix = "[Token Relay] "

// Entry is a single diagnostic record. Data holds the JSON serialisation of
// whatever was attached when the entry was appended.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Data      *string   `json:"data"`
}

// Log is the collaborator the relay appends to. Appends must be safe for
// concurrent use.
type Log interface {
	Append(message string, data any)
	Entries() ([]Entry, error)
	Clear() error
}

// Option configures a log implementation.
type Option func(*options)

type options struct {
	capacity int
	nowTime  func() time.Time
}

// WithCapacity overrides DefaultCapacity. Values below one are ignored.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// WithNowTime sets the clock used for entry timestamps (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowTime = nowFunc
	}
}

func buildOptions(opts []Option) options {
	o := options{capacity: DefaultCapacity, nowTime: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newEntry(now time.Time, message string, data any) Entry {
	entry := Entry{Timestamp: now.UTC(), Message: message}
	if data == nil {
		return entry
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s := fmt.Sprintf("%v", data)
		entry.Data = &s
		return entry
	}
	s := string(raw)
	entry.Data = &s
	return entry
}

// mirror echoes the entry to the process log.
func mirror(entry Entry) {
	event := log.Debug()
	if entry.Data != nil {
		event = event.Str("data", *entry.Data)
	}
	event.Msg(logPrefix + entry.Message)
}

// TruncateToken returns a prefix of the token safe to place in diagnostics.
// At most half of the token is kept, so short tokens never appear whole.
func TruncateToken(token string) string {
	keep := min(10, len(token)/2)
	return token[:keep] + "..."
}
