package logbuf

import (
	"strings"
	"sync"
	"time"
)

// Entry represents a single captured log line
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// Buffer is a thread-safe ring buffer of recent log lines. It implements
// io.Writer so it can sit behind the zerolog multi-writer, and serves the
// /api/logs endpoint.
type Buffer struct {
	entries []Entry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// New creates a buffer with the given capacity
func New(size int) *Buffer {
	return &Buffer{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Write implements io.Writer for capturing log output
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw := string(p)
	entry := Entry{
		Timestamp: time.Now(),
		Raw:       raw,
		Level:     parseLevel(raw),
		Message:   parseMessage(raw),
	}

	b.entries[b.head] = entry
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}

	return len(p), nil
}

// Entries returns all captured entries in chronological order
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Entry, b.count)
	if b.count == 0 {
		return result
	}

	start := 0
	if b.count == b.size {
		start = b.head
	}
	for i := 0; i < b.count; i++ {
		result[i] = b.entries[(start+i)%b.size]
	}
	return result
}

// Recent returns the most recent n entries
func (b *Buffer) Recent(n int) []Entry {
	entries := b.Entries()
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// parseLevel extracts the level from a zerolog JSON line
func parseLevel(raw string) string {
	for _, level := range []string{"debug", "info", "warn", "error", "fatal"} {
		if strings.Contains(raw, `"level":"`+level+`"`) {
			return level
		}
	}
	return "info"
}

// parseMessage extracts the message field from a zerolog JSON line
func parseMessage(raw string) string {
	start := strings.Index(raw, `"message":"`)
	if start == -1 {
		return strings.TrimSpace(raw)
	}
	start += len(`"message":"`)
	end := start
	for end < len(raw) && raw[end] != '"' {
		if raw[end] == '\\' && end+1 < len(raw) {
			end += 2
			continue
		}
		end++
	}
	return raw[start:end]
}
