package generator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/rohan/internal/llm"
	"github.com/wesleyorama2/rohan/internal/metrics"
)

func emitAll(ctx context.Context, batch Batch, emit func(Result)) {
	for i, item := range batch.Items {
		emit(Result{Index: batch.Index(i), Name: item.ItemName(), Artifact: Script{Name: item.ItemName()}})
	}
}

func TestPool_SingleWorkerIsSequential(t *testing.T) {
	var starts []int
	p := &Pool{Workers: 1, BatchSize: 2, Logger: zerolog.Nop()}
	agg := NewAggregator(7, nil, nil, zerolog.Nop())

	err := p.Run(context.Background(), opItems(7), func(ctx context.Context, batch Batch, emit func(Result)) {
		starts = append(starts, batch.Start)
		emitAll(ctx, batch, emit)
	}, agg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 4, 6}, starts)
	assert.Len(t, agg.Close(), 7)
}

func TestPool_BoundedConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	p := &Pool{Workers: 3, BatchSize: 1, Logger: zerolog.Nop()}
	agg := NewAggregator(12, nil, nil, zerolog.Nop())

	err := p.Run(context.Background(), opItems(12), func(ctx context.Context, batch Batch, emit func(Result)) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		emitAll(ctx, batch, emit)
	}, agg)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Len(t, agg.Close(), 12)
}

func TestPool_CancelMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	p := &Pool{Workers: 1, BatchSize: 1, Logger: zerolog.Nop()}
	agg := NewAggregator(5, nil, nil, zerolog.Nop())

	err := p.Run(ctx, opItems(5), func(ctx context.Context, batch Batch, emit func(Result)) {
		emitAll(ctx, batch, emit)
		once.Do(cancel)
	}, agg)
	assert.ErrorIs(t, err, context.Canceled)

	results := agg.Close()
	require.Len(t, results, 5)
	assert.Equal(t, StatusSucceeded, results[0].Status())
	for _, r := range results[1:] {
		assert.Equal(t, KindCanceled, r.Err.Kind)
	}
}

func TestTimed_RecordsEveryCall(t *testing.T) {
	fail := errors.New("boom")
	var calls int
	inner := llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
		calls++
		if calls == 2 {
			return "", fail
		}
		return "ok", nil
	})
	rec := metrics.NewRecorder()

	c := &timed{inner: inner, recorder: rec}
	out, err := c.Complete(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = c.Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, fail)

	snap := rec.Snapshot()
	assert.Equal(t, int64(2), snap.Calls)
	assert.Equal(t, int64(1), snap.Errors)
}
