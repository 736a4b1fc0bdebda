// Package metrics records completion-call latencies for the run summary.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin     = 1                  // 1 microsecond
	histogramMax     = 3600 * 1000 * 1000 // 1 hour in microseconds
	histogramSigFigs = 3
)

// Recorder collects completion latencies in an HDR histogram.
//
// Recorder is safe for concurrent use. Counters are atomic; the histogram
// is mutex-protected because RecordValue is not thread-safe.
type Recorder struct {
	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	calls  atomic.Int64
	errors atomic.Int64
}

// LatencyStats summarizes the latency distribution.
type LatencyStats struct {
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P95   time.Duration
	P99   time.Duration
	Count int64
}

// Snapshot is a point-in-time view of a Recorder.
type Snapshot struct {
	Calls   int64
	Errors  int64
	Latency LatencyStats
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Record records one completion call. err marks the call failed; its
// latency is recorded either way.
func (r *Recorder) Record(d time.Duration, err error) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.histMu.Lock()
	_ = r.hist.RecordValue(micros)
	r.histMu.Unlock()

	r.calls.Add(1)
	if err != nil {
		r.errors.Add(1)
	}
}

// Snapshot returns the current counts and latency percentiles.
func (r *Recorder) Snapshot() Snapshot {
	r.histMu.Lock()
	latency := LatencyStats{
		Min:   micros(r.hist.Min()),
		Max:   micros(r.hist.Max()),
		Mean:  micros(int64(r.hist.Mean())),
		P50:   micros(r.hist.ValueAtQuantile(50)),
		P90:   micros(r.hist.ValueAtQuantile(90)),
		P95:   micros(r.hist.ValueAtQuantile(95)),
		P99:   micros(r.hist.ValueAtQuantile(99)),
		Count: r.hist.TotalCount(),
	}
	r.histMu.Unlock()

	return Snapshot{
		Calls:   r.calls.Load(),
		Errors:  r.errors.Load(),
		Latency: latency,
	}
}

// Reset clears all recorded values.
func (r *Recorder) Reset() {
	r.histMu.Lock()
	r.hist.Reset()
	r.histMu.Unlock()

	r.calls.Store(0)
	r.errors.Store(0)
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
