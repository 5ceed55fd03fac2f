package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairbench/internal/loadtest"
)

func sampleReport() *loadtest.Report {
	return &loadtest.Report{
		ID:        "run-1",
		Target:    "orders",
		BackendA:  "couch",
		BackendB:  "mongo",
		Query:     loadtest.Query{Type: loadtest.QueryCount},
		StartedAt: time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Entries: []loadtest.Entry{
			{
				Spec: loadtest.ScenarioSpec{Users: 10, Query: loadtest.Query{Type: loadtest.QueryCount}},
				A: loadtest.Summary{
					Backend: "couch", TotalQueries: 10, SuccessfulQueries: 10,
					Avg: 5 * time.Millisecond, P95: 8 * time.Millisecond,
					ThroughputQPS: 120, SuccessRate: 1,
				},
				B: loadtest.Summary{
					Backend: "mongo", TotalQueries: 10, FailedQueries: 10,
					Errors: []string{"auth failed"},
				},
			},
			{
				Spec: loadtest.ScenarioSpec{Users: 5000, Query: loadtest.Query{Type: loadtest.QueryCount}},
				Err:  "scenario setup failed: backend mongo: handle 2048/5000: too many connections",
			},
		},
	}
}

func TestWriteReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_report.json")

	require.NoError(t, WriteReport(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded loadtest.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "orders", decoded.Target)
	require.Len(t, decoded.Entries, 2)
	assert.True(t, decoded.Entries[1].Skipped())
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_report.html")

	require.NoError(t, WriteHTML(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "couch")
	assert.Contains(t, html, "mongo")
	assert.Contains(t, html, "10 concurrent users")
	assert.Contains(t, html, "Scenario skipped")
}

func TestWriteSamplesCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.csv")

	samples := []loadtest.Sample{
		{Backend: "couch", Query: loadtest.QueryCount, Started: time.Now(),
			Elapsed: 3 * time.Millisecond, Success: true, Records: 42},
		{Backend: "mongo", Query: loadtest.QueryCount, Started: time.Now(),
			Success: false, Reason: "timeout"},
	}
	require.NoError(t, WriteSamplesCSV(samples, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "couch")
	assert.Contains(t, string(data), "timeout")
}

func TestSampleArchiver_GroupsByUserCount(t *testing.T) {
	dir := t.TempDir()
	a := NewSampleArchiver(dir, "orders")
	sink := a.Sink()

	spec := loadtest.ScenarioSpec{Users: 10, Query: loadtest.Query{Type: loadtest.QueryCount}}
	sink(spec, "couch", []loadtest.Sample{{Backend: "couch", Success: true}})
	sink(spec, "mongo", []loadtest.Sample{{Backend: "mongo", Success: false, Reason: "x"}})

	require.NoError(t, a.Flush())

	data, err := os.ReadFile(filepath.Join(dir, "orders_samples_10users.json"))
	require.NoError(t, err)

	var samples []loadtest.Sample
	require.NoError(t, json.Unmarshal(data, &samples))
	assert.Len(t, samples, 2)

	// Every JSON archive gets a CSV sibling.
	csvData, err := os.ReadFile(filepath.Join(dir, "orders_samples_10users.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "couch")
	assert.Contains(t, string(csvData), "mongo")
}
