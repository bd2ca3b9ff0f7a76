// Package logger records executed commands as newline-delimited JSON.
// The shell is the producer; anything that wants the records (auditing,
// replay tooling) reads them back with Read.
package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Record is one executed pipeline.
type Record struct {
	Time       time.Time `json:"time"`
	Command    string    `json:"command"`
	Status     int       `json:"status"`
	Background bool      `json:"background"`
	JobID      int       `json:"job_id,omitempty"`
}

// Log appends records to a writer, one JSON object per line.
type Log struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

func New(w io.Writer) *Log {
	return &Log{enc: json.NewEncoder(w)}
}

// Open opens (or creates) an append-only record log at path.
func Open(fs afero.Fs, path string) (*Log, error) {
	fd, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	l := New(fd)
	l.closer = fd
	return l, nil
}

// Record appends one record.
func (l *Log) Record(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(rec)
}

// Close closes the underlying file, if the log owns one.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Read parses a newline-delimited JSON record log, invoking handler
// for every record.
func Read(r io.Reader, handler func(Record)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			return err
		}
		handler(rec)
	}
	return nil
}
