package output

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/rohan/internal/generator"
	"github.com/wesleyorama2/rohan/internal/metrics"
	"github.com/wesleyorama2/rohan/internal/rate"
	"github.com/wesleyorama2/rohan/internal/sink"
)

func TestReporter_PlanPreview(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	plan := &generator.TestPlan{}
	for i := 0; i < 23; i++ {
		plan.Tests = append(plan.Tests, generator.TestEntry{Name: fmt.Sprintf("Test_%d", i), Method: "GET", Path: "/x"})
	}
	r.PlanPreview(plan)

	out := buf.String()
	assert.Contains(t, out, "1. Test_0 (GET /x)")
	assert.Contains(t, out, "20. Test_19 (GET /x)")
	assert.NotContains(t, out, "Test_20")
	assert.Contains(t, out, "... and 3 more")
}

func TestReporter_PlanPreviewE2E(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, true).PlanPreview(&generator.TestPlan{E2E: true, Scenarios: []generator.Scenario{
		{Name: "Checkout", Steps: []generator.Step{{Method: "POST", Path: "/cart"}, {Method: "POST", Path: "/orders"}}},
	}})
	assert.Contains(t, buf.String(), "1. Checkout (2 steps)")
}

func TestReporter_Summary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)

	report := generator.Report{
		Results: []generator.Result{
			{Index: 0, Name: "ok"},
			{Index: 1, Name: "op_4", Err: &generator.Error{Kind: generator.KindService, Item: "op_4", Err: errors.New("401")}},
		},
		Succeeded: 8,
		Skipped:   1,
		Failed:    1,
	}
	rec := metrics.NewRecorder()
	rec.Record(120*time.Millisecond, nil)

	r.Summary(report, rec.Snapshot(), rate.Stats{Admitted: 4, TotalWait: 1500 * time.Millisecond}, 3*time.Second)

	out := buf.String()
	assert.Contains(t, out, "✓ 8 succeeded")
	assert.Contains(t, out, "↷ 1 skipped")
	assert.Contains(t, out, "✗ 1 failed")
	assert.Contains(t, out, "- op_4: ServiceError")
	assert.Contains(t, out, "1 completion calls (0 failed)")
	assert.Contains(t, out, "p50=")
	assert.Contains(t, out, "rate limit admitted 4 requests, waited 1.50s in total")
	assert.NotContains(t, out, "\x1b[", "no escape codes for non-terminals")
}

func TestReporter_Progress(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)

	r.Progress(1, 3, generator.Result{Name: "a"}, "test_a.js")
	r.Progress(2, 3, generator.Result{Name: "b", Skipped: true}, "test_b.js")
	r.Progress(3, 3, generator.Result{Name: "c", Err: &generator.Error{Kind: generator.KindParse}}, "")

	out := buf.String()
	assert.Contains(t, out, "[1/3] ✓ a test_a.js")
	assert.Contains(t, out, "[2/3] ↷ b test_b.js exists, skipped")
	assert.Contains(t, out, "[3/3] ✗ c ParseError")
}

func TestReporter_K6Instructions(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, true).K6Instructions("tests/", "http://api.local", []sink.ManifestEntry{{ID: 1, Name: "List", File: "test_list.js"}})

	out := buf.String()
	assert.Contains(t, out, "k6 run --env BASE_URL=http://api.local tests/test_list.js")
	assert.Contains(t, out, "for f in tests/*.js")
	assert.Contains(t, out, "brew install k6")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "120ms", formatDuration(120*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.False(t, UseColor(&bytes.Buffer{}, false))
}

func TestReporter_SummaryWithoutLimiter(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, true).Summary(generator.Report{Succeeded: 1}, metrics.Snapshot{}, rate.Stats{}, time.Second)
	assert.NotContains(t, buf.String(), "rate limit")
	assert.NotContains(t, buf.String(), "completion calls")
}

func TestReporter_ProgressUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, true).Progress(2, 0, generator.Result{Name: "Checkout"}, "")
	assert.Equal(t, "  [2] ✓ Checkout\n", buf.String())
}
