package loadtest

import (
	"context"
	"fmt"
	"time"
)

// QueryType selects the shape of the read issued against a backend.
type QueryType string

const (
	QueryCount           QueryType = "count"
	QuerySelectAll       QueryType = "select_all"
	QuerySelectPaginated QueryType = "select_paginated"
	QueryCustom          QueryType = "custom"
)

// ParseQueryType maps a config string to a QueryType.
func ParseQueryType(s string) (QueryType, error) {
	switch QueryType(s) {
	case QueryCount, QuerySelectAll, QuerySelectPaginated, QueryCustom:
		return QueryType(s), nil
	}
	return "", fmt.Errorf("unknown query type %q", s)
}

// Query is one logical read request. Statement is only set for QueryCustom.
type Query struct {
	Type      QueryType `json:"type"`
	Statement string    `json:"statement,omitempty"`
}

// QueryExecutor runs a single logical query against one backend.
// A handle is owned by exactly one worker; it does not need to be safe
// for concurrent use, but independent handles must be usable in parallel.
type QueryExecutor interface {
	Execute(ctx context.Context, q Query) (records int64, err error)
	Close() error
}

// ExecutorProvider hands out per-worker executor handles, typically
// backed by an externally managed connection pool.
type ExecutorProvider interface {
	Acquire(ctx context.Context) (QueryExecutor, error)
}

// BackendTarget names one side of the comparison and supplies its executors.
type BackendTarget struct {
	Name     string
	Provider ExecutorProvider
}

// Sample is the outcome of one query attempt. Immutable once recorded.
type Sample struct {
	Backend string        `json:"backend"`
	Query   QueryType     `json:"query_type"`
	Started time.Time     `json:"started_at"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Success bool          `json:"success"`
	Records int64         `json:"records_returned"`
	Reason  string        `json:"error,omitempty"`
}

// ScenarioSpec is the immutable input to one scenario run.
// Duration == 0 means every simulated user issues exactly one query.
type ScenarioSpec struct {
	Users     int           `json:"users"`
	Query     Query         `json:"query"`
	Duration  time.Duration `json:"duration_ns"`
	ThinkTime time.Duration `json:"think_time_ns"`
}

func (s ScenarioSpec) Validate() error {
	if s.Users <= 0 {
		return fmt.Errorf("user count must be positive, got %d", s.Users)
	}
	if _, err := ParseQueryType(string(s.Query.Type)); err != nil {
		return err
	}
	if s.Query.Type == QueryCustom && s.Query.Statement == "" {
		return fmt.Errorf("custom query requires a statement")
	}
	return nil
}
