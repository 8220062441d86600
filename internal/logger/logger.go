// Package logger is the process-wide log. Cores never print; they add
// entries here and the host decides whether to echo them.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Entry is a single log line. Consecutive identical entries are folded into
// one with a repeat count.
type Entry struct {
	Tag      string
	Detail   string
	Repeated int
}

func (e Entry) String() string {
	if e.Repeated > 0 {
		return fmt.Sprintf("%s: %s (repeat x%d)\n", e.Tag, e.Detail, e.Repeated+1)
	}
	return fmt.Sprintf("%s: %s\n", e.Tag, e.Detail)
}

const maxEntries = 256

type log struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

var central = &log{}

// Log adds an entry.
func Log(tag, detail string) {
	central.add(tag, detail)
}

// Logf adds a formatted entry.
func Logf(tag, format string, args ...any) {
	central.add(tag, fmt.Sprintf(format, args...))
}

// SetEcho writes every new entry to w as well. A nil writer stops echoing.
func SetEcho(w io.Writer) {
	central.mu.Lock()
	central.echo = w
	central.mu.Unlock()
}

// Clear drops all entries.
func Clear() {
	central.mu.Lock()
	central.entries = central.entries[:0]
	central.mu.Unlock()
}

// Write copies every entry to w.
func Write(w io.Writer) {
	Tail(w, maxEntries)
}

// Tail writes the last n entries to w.
func Tail(w io.Writer, n int) {
	central.mu.Lock()
	defer central.mu.Unlock()
	if n > len(central.entries) {
		n = len(central.entries)
	}
	for _, e := range central.entries[len(central.entries)-n:] {
		io.WriteString(w, e.String())
	}
}

func (l *log) add(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
	} else {
		l.entries = append(l.entries, Entry{Tag: tag, Detail: detail})
		if len(l.entries) > maxEntries {
			l.entries = l.entries[len(l.entries)-maxEntries:]
		}
	}
	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}
