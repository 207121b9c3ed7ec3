// Package audit keeps a tamper-evident record of every assessment.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// GenesisHash is the prev_hash for the first entry in a new audit log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// maxLineSize bounds a single JSONL line. Entries carry citations and
// signal codes, so they stay far below it.
const maxLineSize = 1 << 20

// Log is an append-only JSONL audit log with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous entry's JSON line.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	mu       sync.Mutex
}

// Open opens (or creates) an audit log file for appending, recovering the
// chain tail from the last line of an existing file.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create audit directory", goerr.V("path", path))
	}

	prevHash, err := tailHash(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open audit log", goerr.V("path", path))
	}

	return &Log{path: path, file: file, prevHash: prevHash}, nil
}

func tailHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return GenesisHash, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read existing audit log", goerr.V("path", path))
	}
	defer f.Close()

	var last []byte
	scanner := newScanner(f)
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", goerr.Wrap(err, "failed to scan existing audit log", goerr.V("path", path))
	}
	if len(last) == 0 {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// Path returns the file backing the log.
func (l *Log) Path() string { return l.path }

// Record appends an entry with hash chaining, filling Timestamp when empty,
// and syncs to disk.
func (l *Log) Record(entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if entry.Signals == nil {
		entry.Signals = []string{}
	}
	if entry.Citations == nil {
		entry.Citations = []AuditCitation{}
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal audit entry")
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return goerr.Wrap(err, "failed to write audit entry", goerr.V("path", l.path))
	}
	if err := l.file.Sync(); err != nil {
		return goerr.Wrap(err, "failed to sync audit log", goerr.V("path", l.path))
	}

	l.prevHash = HashLine(line)
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

func newScanner(f *os.File) *bufio.Scanner {
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}
