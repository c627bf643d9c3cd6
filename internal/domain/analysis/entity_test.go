package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHistoryID(t *testing.T) {
	at := time.Date(2025, 6, 16, 8, 30, 15, 123_000_000, time.UTC)

	id := NewHistoryID("G1", "2025-06-15~2025-06-15", at)
	assert.Equal(t, HistoryID("G1_2025-06-15_2025-06-15_2025-06-16T08-30-15-123Z"), id)
}

func TestNewHistoryIDFilesystemSafe(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	id := string(NewHistoryID(`Team / "Ops" <daily>`, "last 7 days", at))
	for _, c := range []string{"/", "\\", ":", "*", "?", `"`, "<", ">", "|", " "} {
		assert.NotContains(t, id, c)
	}
}

func TestNewHistoryIDKeepsHanCharacters(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id := string(NewHistoryID("家庭群", "2025-01-01~2025-01-02", at))
	assert.Contains(t, id, "家庭群")
}

func TestNewHistoryIDUniquePerInstant(t *testing.T) {
	a := NewHistoryID("G1", "2025-06-15~2025-06-15", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	b := NewHistoryID("G1", "2025-06-15~2025-06-15", time.Date(2025, 6, 16, 0, 0, 0, 1_000_000, time.UTC))
	assert.NotEqual(t, a, b)
}

func TestRecordTitle(t *testing.T) {
	assert.Equal(t, "G1 - 2025-06-15~2025-06-15", RecordTitle("G1", "2025-06-15~2025-06-15", false))
	assert.Equal(t, "[scheduled] G1 - 2025-06-15~2025-06-15", RecordTitle("G1", "2025-06-15~2025-06-15", true))
}
