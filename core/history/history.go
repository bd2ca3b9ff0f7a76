// Package history keeps the shell's command history: a bounded list of
// executed lines that backs the `history` builtin and `!N` replay.
package history

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// DefaultLimit caps stored history when no limit is configured.
const DefaultLimit = 1000

// History is a bounded, append-only command list. Once limit entries
// are stored the oldest entry is evicted on each push.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Clone returns an independent copy of the history.
func (h *History) Clone() *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &History{limit: h.limit}
	c.entries = append(c.entries, h.entries...)
	return c
}

// Push appends line to the history. Empty lines and lines equal to the
// most recent entry are skipped.
func (h *History) Push(line string) {
	if line == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Entries returns a copy of the stored lines, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored lines.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Lookup resolves a 1-based history reference as used by `!N`.
func (h *History) Lookup(n int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 1 || n > len(h.entries) {
		return "", fmt.Errorf("no such history entry: %d", n)
	}
	return h.entries[n-1], nil
}

// Clear removes all stored lines.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Load reads one history entry per line from path. A missing file is
// not an error.
func (h *History) Load(fs afero.Fs, path string) error {
	fd, err := fs.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		h.Push(scanner.Text())
	}
	return scanner.Err()
}

// Save writes the history to path, one entry per line.
func (h *History) Save(fs afero.Fs, path string) error {
	fd, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	for _, line := range h.Entries() {
		if _, err := fmt.Fprintln(fd, line); err != nil {
			return err
		}
	}
	return nil
}
