package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairbench/internal/loadtest"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveListGet(t *testing.T) {
	s := testStore(t)

	first := HistoryItem{
		ID: "run-1", Timestamp: time.Now().Add(-time.Hour),
		Target: "orders", BackendA: "couch", BackendB: "mongo", QueryType: "count",
	}
	second := HistoryItem{
		ID: "run-2", Timestamp: time.Now(),
		Target: "sessions", BackendA: "couch", BackendB: "mongo", QueryType: "select_all",
	}
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	items := s.List()
	require.Len(t, items, 2)
	// Newest first.
	assert.Equal(t, "run-2", items[0].ID)
	assert.Equal(t, "run-1", items[1].ID)

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "orders", got.Target)

	_, err = s.Get("missing")
	assert.Error(t, err)
}

func TestNewHistoryItem_DigestsReport(t *testing.T) {
	r := &loadtest.Report{
		ID: "run-9", Target: "orders",
		BackendA: "couch", BackendB: "mongo",
		Query:     loadtest.Query{Type: loadtest.QuerySelectAll},
		StartedAt: time.Now(),
		Entries: []loadtest.Entry{
			{
				Spec: loadtest.ScenarioSpec{Users: 10},
				A:    loadtest.Summary{Avg: 4 * time.Millisecond, ThroughputQPS: 100, SuccessRate: 1},
				B:    loadtest.Summary{Avg: 9 * time.Millisecond, ThroughputQPS: 60, SuccessRate: 0.9},
			},
			{Spec: loadtest.ScenarioSpec{Users: 100}, Err: "setup failed"},
		},
	}

	item := NewHistoryItem(r)
	assert.Equal(t, "run-9", item.ID)
	assert.Equal(t, "select_all", item.QueryType)
	require.Len(t, item.Scenarios, 2)
	assert.InDelta(t, 4.0, item.Scenarios[0].AvgAMs, 1e-9)
	assert.False(t, item.Scenarios[0].Skipped)
	assert.True(t, item.Scenarios[1].Skipped)
}
