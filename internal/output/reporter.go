// Package output renders rohan's human-readable console output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wesleyorama2/rohan/internal/generator"
	"github.com/wesleyorama2/rohan/internal/metrics"
	"github.com/wesleyorama2/rohan/internal/rate"
	"github.com/wesleyorama2/rohan/internal/sink"
)

// previewLimit caps how many plan entries are listed after planning.
const previewLimit = 20

// Reporter writes progress and summaries.
type Reporter struct {
	w       io.Writer
	noColor bool
	scheme  *ColorScheme
}

// NewReporter creates a Reporter. Colors are disabled when noColor is set
// or w is not a terminal.
func NewReporter(w io.Writer, noColor bool) *Reporter {
	noColor = !UseColor(w, noColor)
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Reporter{w: w, noColor: noColor, scheme: scheme}
}

func (r *Reporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

// Info prints an informational line.
func (r *Reporter) Info(format string, args ...interface{}) {
	r.printf("%s %s\n", InfoIcon(r.noColor), fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (r *Reporter) Success(format string, args ...interface{}) {
	r.printf("%s %s\n", SuccessIcon(r.noColor), fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (r *Reporter) Warn(format string, args ...interface{}) {
	r.printf("%s %s\n", WarningIcon(r.noColor), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (r *Reporter) Error(format string, args ...interface{}) {
	r.printf("%s %s\n", ErrorIcon(r.noColor), fmt.Sprintf(format, args...))
}

// Spec prints what validate and plan report about an API description.
func (r *Reporter) Spec(title, version string, endpoints, operations int) {
	r.printf("  Title:      %s\n", r.scheme.Title.Sprint(title))
	r.printf("  Version:    %s\n", version)
	r.printf("  Endpoints:  %s\n", r.scheme.Count.Sprint(endpoints))
	r.printf("  Operations: %s\n", r.scheme.Count.Sprint(operations))
}

// PlanPreview lists the first entries of a plan.
func (r *Reporter) PlanPreview(plan *generator.TestPlan) {
	if plan.E2E {
		r.printf("\nE2E scenarios:\n")
		for i, s := range plan.Scenarios {
			if i == previewLimit {
				break
			}
			r.printf("  %d. %s %s\n", i+1, r.scheme.Name.Sprint(s.Name), r.scheme.Dim.Sprintf("(%d steps)", len(s.Steps)))
		}
	} else {
		r.printf("\nTest entries:\n")
		for i, t := range plan.Tests {
			if i == previewLimit {
				break
			}
			r.printf("  %d. %s (%s %s)\n", i+1, r.scheme.Name.Sprint(t.Name), r.scheme.Method.Sprint(t.Method), r.scheme.Path.Sprint(t.Path))
		}
	}
	if n := plan.Len(); n > previewLimit {
		r.printf("  ... and %d more\n", n-previewLimit)
	}
}

// Progress prints one line per finished item. A total of 0 means the
// total is not known yet.
func (r *Reporter) Progress(done, total int, res generator.Result, file string) {
	var icon, detail string
	switch res.Status() {
	case generator.StatusSucceeded:
		icon = SuccessIcon(r.noColor)
		detail = file
	case generator.StatusSkipped:
		icon = SkipIcon(r.noColor)
		detail = file + " exists, skipped"
	default:
		icon = ErrorIcon(r.noColor)
		detail = string(res.Err.Kind)
	}
	counter := fmt.Sprintf("[%d/%d]", done, total)
	if total == 0 {
		counter = fmt.Sprintf("[%d]", done)
	}
	line := fmt.Sprintf("  %s %s %s", counter, icon, res.Name)
	if detail != "" {
		line += " " + r.scheme.Dim.Sprint(detail)
	}
	r.printf("%s\n", line)
}

// Summary prints counts, each failure, completion latencies and the time
// spent waiting on the rate limit.
func (r *Reporter) Summary(report generator.Report, snap metrics.Snapshot, limits rate.Stats, elapsed time.Duration) {
	r.printf("\n%s\n", r.scheme.Title.Sprint("Summary"))
	r.printf("  %s %s succeeded\n", SuccessIcon(r.noColor), r.scheme.Success.Sprint(report.Succeeded))
	if report.Skipped > 0 {
		r.printf("  %s %s skipped\n", SkipIcon(r.noColor), r.scheme.Dim.Sprint(report.Skipped))
	}
	if report.Failed > 0 {
		r.printf("  %s %s failed\n", ErrorIcon(r.noColor), r.scheme.Error.Sprint(report.Failed))
		for _, f := range report.Failures() {
			r.printf("      - %s: %s\n", f.Name, r.scheme.Error.Sprint(f.Err.Kind))
		}
	}

	if snap.Calls > 0 {
		lat := snap.Latency
		r.printf("  %d completion calls (%d failed) in %s\n", snap.Calls, snap.Errors, elapsed.Round(time.Millisecond))
		r.printf("  latency p50=%s p90=%s p95=%s p99=%s max=%s\n",
			formatDuration(lat.P50), formatDuration(lat.P90), formatDuration(lat.P95),
			formatDuration(lat.P99), formatDuration(lat.Max))
	}
	if limits.Admitted > 0 {
		r.printf("  rate limit admitted %d requests, waited %s in total\n", limits.Admitted, formatDuration(limits.TotalWait))
	}
}

// K6Instructions prints how to run the generated scripts.
func (r *Reporter) K6Instructions(dir, target string, entries []sink.ManifestEntry) {
	example := "test_1.js"
	if len(entries) > 0 {
		example = entries[0].File
	}
	dir = strings.TrimRight(dir, "/\\")

	r.printf("\n%s\n\n", r.scheme.Title.Sprint("Run tests with k6:"))
	r.printf("   # Run a single test:\n")
	r.printf("   k6 run --env BASE_URL=%s %s/%s\n\n", target, dir, example)
	r.printf("   # Run all tests (bash/zsh):\n")
	r.printf("   for f in %s/*.js; do k6 run --env BASE_URL=%s \"$f\"; done\n\n", dir, target)
	r.printf("   # Run all tests (PowerShell):\n")
	r.printf("   Get-ChildItem %s\\*.js | ForEach-Object { k6 run --env BASE_URL=%s $_.FullName }\n\n", dir, target)
	r.printf("Install k6: %s\n", r.scheme.Highlight.Sprint("https://k6.io/docs/get-started/installation/"))
	r.printf("   - Windows: choco install k6  OR  winget install k6\n")
	r.printf("   - macOS:   brew install k6\n")
	r.printf("   - Linux:   see k6.io for your distro\n")
}

// formatDuration formats a duration with an appropriate unit
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
