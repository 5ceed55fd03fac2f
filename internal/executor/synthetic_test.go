package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairbench/internal/loadtest"
)

func TestSynthetic_SuccessfulQuery(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{Records: 250})

	exec, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer exec.Close()

	n, err := exec.Execute(context.Background(), loadtest.Query{Type: loadtest.QueryCount})
	require.NoError(t, err)
	assert.Equal(t, int64(250), n)

	// Select-style queries are capped at one page.
	n, err = exec.Execute(context.Background(), loadtest.Query{Type: loadtest.QuerySelectAll})
	require.NoError(t, err)
	assert.Equal(t, int64(pageSize), n)
}

func TestSynthetic_AlwaysFails(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{FailureRate: 1.0, Records: 10})

	exec, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer exec.Close()

	_, err = exec.Execute(context.Background(), loadtest.Query{Type: loadtest.QueryCount})
	assert.Error(t, err)
}

func TestSynthetic_HandleLimit(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{MaxHandles: 2, Records: 1})

	e1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	e2, err := p.Acquire(context.Background())
	require.NoError(t, err)

	_, err = p.Acquire(context.Background())
	assert.Error(t, err)

	// Releasing a handle frees a slot.
	require.NoError(t, e1.Close())
	e3, err := p.Acquire(context.Background())
	require.NoError(t, err)

	e2.Close()
	e3.Close()
}

func TestSynthetic_RespectsContextDuringLatency(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{BaseLatency: time.Second, Records: 1})
	exec, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer exec.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = exec.Execute(ctx, loadtest.Query{Type: loadtest.QueryCount})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
