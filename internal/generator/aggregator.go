package generator

import (
	"sort"

	"github.com/rs/zerolog"
)

// Callback receives each successful result in completion order, from a
// single goroutine. Returning skipped marks the result Skipped; returning
// an error turns it into a SinkError failure. Neither stops other items.
type Callback func(r Result) (skipped bool, err error)

// Observer sees every result, failures included, after the callback has
// settled its status. It runs on the consumer goroutine.
type Observer func(r Result)

// Aggregator collects results from concurrent workers through one channel.
// Its consumer goroutine is the only code that touches the callback and
// the result map.
type Aggregator struct {
	results  chan Result
	done     chan struct{}
	callback Callback
	observer Observer
	byIndex  map[int]Result
	log      zerolog.Logger
}

// NewAggregator starts the consumer. callback and observer may be nil.
func NewAggregator(buffer int, callback Callback, observer Observer, log zerolog.Logger) *Aggregator {
	if buffer < 1 {
		buffer = 1
	}
	a := &Aggregator{
		results:  make(chan Result, buffer),
		done:     make(chan struct{}),
		callback: callback,
		observer: observer,
		byIndex:  make(map[int]Result),
		log:      log,
	}
	go a.consume()
	return a
}

// Submit hands a finished result to the consumer. It must not be called
// after Close.
func (a *Aggregator) Submit(r Result) {
	a.results <- r
}

// Close waits for every submitted result to be consumed and returns them
// sorted by submission index.
func (a *Aggregator) Close() []Result {
	close(a.results)
	<-a.done

	out := make([]Result, 0, len(a.byIndex))
	for _, r := range a.byIndex {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (a *Aggregator) consume() {
	defer close(a.done)

	for r := range a.results {
		if r.Err == nil && a.callback != nil {
			skipped, err := a.callback(r)
			switch {
			case err != nil:
				r.Err = newError(KindSink, r.Name, err)
			case skipped:
				r.Skipped = true
			}
		}

		switch r.Status() {
		case StatusFailed:
			a.log.Warn().Int("index", r.Index).Str("item", r.Name).Str("kind", string(r.Err.Kind)).Err(r.Err.Err).Msg("item failed")
		case StatusSkipped:
			a.log.Debug().Int("index", r.Index).Str("item", r.Name).Msg("item skipped")
		default:
			a.log.Debug().Int("index", r.Index).Str("item", r.Name).Msg("item completed")
		}

		if a.observer != nil {
			a.observer(r)
		}
		a.byIndex[r.Index] = r
	}
}
