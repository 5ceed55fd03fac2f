package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pairbench/internal/loadtest"
)

// WriteReport persists a full comparison report as an indented JSON artifact.
func WriteReport(r *loadtest.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SampleArchiver collects raw samples per scenario and writes one JSON
// file per user count, named <target>_samples_<N>users.json.
type SampleArchiver struct {
	mu      sync.Mutex
	dir     string
	target  string
	byUsers map[int][]loadtest.Sample
}

func NewSampleArchiver(dir, target string) *SampleArchiver {
	return &SampleArchiver{
		dir:     dir,
		target:  target,
		byUsers: make(map[int][]loadtest.Sample),
	}
}

// Sink returns the callback the comparison engine feeds drained samples to.
func (a *SampleArchiver) Sink() loadtest.SampleSink {
	return func(spec loadtest.ScenarioSpec, backend string, samples []loadtest.Sample) {
		a.mu.Lock()
		a.byUsers[spec.Users] = append(a.byUsers[spec.Users], samples...)
		a.mu.Unlock()
	}
}

// Flush writes all collected scenarios to disk, one JSON and one CSV
// artifact per user count.
func (a *SampleArchiver) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.byUsers) == 0 {
		return nil
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}
	for users, samples := range a.byUsers {
		base := filepath.Join(a.dir, fmt.Sprintf("%s_samples_%dusers", a.target, users))
		data, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".json", data, 0644); err != nil {
			return err
		}
		if err := WriteSamplesCSV(samples, base+".csv"); err != nil {
			return err
		}
	}
	return nil
}
