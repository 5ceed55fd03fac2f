package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"pairbench/internal/loadtest"
)

const bucketRuns = "runs"

// HistoryItem is the persisted digest of one comparison run.
type HistoryItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	BackendA  string    `json:"backend_a"`
	BackendB  string    `json:"backend_b"`
	QueryType string    `json:"query_type"`
	Scenarios []ScenarioDigest `json:"scenarios"`
}

// ScenarioDigest keeps the headline numbers of one scenario.
type ScenarioDigest struct {
	Users        int     `json:"users"`
	Skipped      bool    `json:"skipped,omitempty"`
	AvgAMs       float64 `json:"avg_a_ms"`
	AvgBMs       float64 `json:"avg_b_ms"`
	QPSA         float64 `json:"qps_a"`
	QPSB         float64 `json:"qps_b"`
	SuccessRateA float64 `json:"success_rate_a"`
	SuccessRateB float64 `json:"success_rate_b"`
}

// NewHistoryItem digests a finished report.
func NewHistoryItem(r *loadtest.Report) HistoryItem {
	item := HistoryItem{
		ID:        r.ID,
		Timestamp: r.StartedAt,
		Target:    r.Target,
		BackendA:  r.BackendA,
		BackendB:  r.BackendB,
		QueryType: string(r.Query.Type),
	}
	for _, e := range r.Entries {
		item.Scenarios = append(item.Scenarios, ScenarioDigest{
			Users:        e.Spec.Users,
			Skipped:      e.Skipped(),
			AvgAMs:       float64(e.A.Avg.Microseconds()) / 1000.0,
			AvgBMs:       float64(e.B.Avg.Microseconds()) / 1000.0,
			QPSA:         e.A.ThroughputQPS,
			QPSB:         e.B.ThroughputQPS,
			SuccessRateA: e.A.SuccessRate,
			SuccessRateB: e.B.SuccessRate,
		})
	}
	return item
}

// Store keeps run history in a bbolt file under ~/.pairbench.
type Store struct {
	db *bbolt.DB
}

func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".pairbench")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, "history.db"))
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Save(item HistoryItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		// Key by timestamp so List can iterate newest-first.
		key := fmt.Sprintf("%020d_%s", item.Timestamp.UnixNano(), item.ID)
		return b.Put([]byte(key), data)
	})
}

// List returns run digests, newest first.
func (s *Store) List() []HistoryItem {
	var items []HistoryItem
	s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err == nil {
				items = append(items, item)
			}
		}
		return nil
	})
	return items
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var found *HistoryItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.ID == id {
				found = &item
				return nil
			}
		}
		return fmt.Errorf("run %s not found", id)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
