package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Filter selects audit entries. Zero fields match everything.
type Filter struct {
	Category string
	Level    string
	From     time.Time
	To       time.Time
	Limit    int // keep the last Limit matches; 0 = all
}

// Summary counts matched entries per level.
type Summary struct {
	Total          int            `json:"total"`
	ByLevel        map[string]int `json:"by_level"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
}

// QueryResult holds matched entries in log order.
type QueryResult struct {
	Entries []AuditEntry `json:"entries"`
	Summary Summary      `json:"summary"`
}

// Query reads the log and returns the entries matching f. Malformed lines
// are skipped; Verify is the tool for integrity.
func Query(path string, f Filter) (*QueryResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open audit log", goerr.V("path", path))
	}
	defer file.Close()

	result := &QueryResult{Entries: []AuditEntry{}, Summary: Summary{ByLevel: map[string]int{}}}

	scanner := newScanner(file)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !f.matches(entry) {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read audit log", goerr.V("path", path))
	}

	if f.Limit > 0 && len(result.Entries) > f.Limit {
		result.Entries = result.Entries[len(result.Entries)-f.Limit:]
	}
	for _, e := range result.Entries {
		result.Summary.add(e)
	}
	return result, nil
}

func (f Filter) matches(e AuditEntry) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

func (s *Summary) add(e AuditEntry) {
	s.Total++
	s.ByLevel[e.Level]++
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
