package generator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/rohan/internal/llm"
	"github.com/wesleyorama2/rohan/internal/metrics"
)

// ProcessFunc handles one batch and emits exactly one result per item.
type ProcessFunc func(ctx context.Context, batch Batch, emit func(Result))

// Pool runs batches on a fixed number of workers pulling from one queue.
type Pool struct {
	Workers   int
	BatchSize int
	Logger    zerolog.Logger
}

// Run partitions items, processes every batch and submits results to agg.
// Batches start in submission order on at most Workers goroutines. Once
// ctx is done, batches not yet started are drained as Canceled failures,
// so agg still receives one result per item. Run returns after every
// worker has exited.
// Workers never return an error; item failures travel as results.
func (p *Pool) Run(ctx context.Context, items []WorkItem, process ProcessFunc, agg *Aggregator) error {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	batches := Partition(items, p.BatchSize)
	if workers > len(batches) && len(batches) > 0 {
		workers = len(batches)
	}

	p.Logger.Debug().Int("items", len(items)).Int("batches", len(batches)).Int("workers", workers).Msg("starting worker pool")

	var g errgroup.Group
	g.SetLimit(workers)
	for _, batch := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				cancelBatch(batch, err, agg)
				return nil
			}
			p.Logger.Debug().Int("start", batch.Start).Int("size", len(batch.Items)).Msg("processing batch")
			process(ctx, batch, agg.Submit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func cancelBatch(batch Batch, err error, agg *Aggregator) {
	for i, item := range batch.Items {
		agg.Submit(Result{
			Index: batch.Index(i),
			Name:  item.ItemName(),
			Err:   newError(KindCanceled, item.ItemName(), err),
		})
	}
}

// timed wraps a Completer and records the latency of every call.
type timed struct {
	inner    llm.Completer
	recorder *metrics.Recorder
}

func (t *timed) Complete(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()
	out, err := t.inner.Complete(ctx, req)
	if t.recorder != nil {
		t.recorder.Record(time.Since(start), err)
	}
	return out, err
}
