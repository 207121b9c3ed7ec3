package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQueryLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []struct {
		category, level string
	}{
		{"procurement", "high"},
		{"decision", "low"},
		{"procurement", "block"},
		{"analytics", "medium"},
		{"procurement", "high"},
	}
	for i, e := range entries {
		entry := testEntry(e.level)
		entry.AssessmentID = "a-" + string(rune('1'+i))
		entry.Category = e.category
		entry.Timestamp = base.Add(time.Duration(i) * time.Hour).Format(TimestampFormat)
		require.NoError(t, l.Record(entry))
	}
	require.NoError(t, l.Close())
	return path
}

func TestQueryAll(t *testing.T) {
	result, err := Query(writeQueryLog(t), Filter{})
	require.NoError(t, err)

	assert.Len(t, result.Entries, 5)
	assert.Equal(t, 5, result.Summary.Total)
	assert.Equal(t, 2, result.Summary.ByLevel["high"])
	assert.Equal(t, "2026-03-01T09:00:00.000Z", result.Summary.FirstTimestamp)
	assert.Equal(t, "2026-03-01T13:00:00.000Z", result.Summary.LastTimestamp)
}

func TestQueryFilters(t *testing.T) {
	path := writeQueryLog(t)

	byCategory, err := Query(path, Filter{Category: "procurement"})
	require.NoError(t, err)
	assert.Len(t, byCategory.Entries, 3)

	byLevel, err := Query(path, Filter{Category: "procurement", Level: "high"})
	require.NoError(t, err)
	assert.Len(t, byLevel.Entries, 2)

	window, err := Query(path, Filter{
		From: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, window.Entries, 3)
	assert.Equal(t, "a-2", window.Entries[0].AssessmentID)
	assert.Equal(t, "a-4", window.Entries[2].AssessmentID)
}

func TestQueryLimitKeepsNewest(t *testing.T) {
	result, err := Query(writeQueryLog(t), Filter{Limit: 2})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "a-4", result.Entries[0].AssessmentID)
	assert.Equal(t, "a-5", result.Entries[1].AssessmentID)
	assert.Equal(t, 2, result.Summary.Total)
}

func TestQueryMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonl")
	_, err := Query(path, Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	var ge *goerr.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, path, ge.Values()["path"])
}

func TestFormatTimeline(t *testing.T) {
	result, err := Query(writeQueryLog(t), Filter{})
	require.NoError(t, err)

	out := FormatTimeline(result)
	assert.Contains(t, out, "2026-03-01 09:00:00 – 2026-03-01 13:00:00 UTC")
	assert.Contains(t, out, "BLOCK")
	assert.Contains(t, out, "missing_single_source_reason")
	assert.Contains(t, out, "Summary: 5 assessments | 1 block, 2 high, 1 medium, 1 low")
	assert.Equal(t, 5+4, strings.Count(out, "\n"))
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&QueryResult{Summary: Summary{ByLevel: map[string]int{}}})
	assert.Equal(t, "No assessments found.\n", out)
}

func TestFormatJSON(t *testing.T) {
	result, err := Query(writeQueryLog(t), Filter{Level: "block"})
	require.NoError(t, err)

	out, err := FormatJSON(result)
	require.NoError(t, err)
	assert.Contains(t, out, `"assessment_id": "a-3"`)
	assert.Contains(t, out, `"block": 1`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "办公设...", truncate("办公设备采购项目", 6))
}
