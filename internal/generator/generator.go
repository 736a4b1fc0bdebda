// Package generator is the generation engine: it turns API operations or
// scenario outlines into completion requests, runs them on a bounded
// worker pool and hands the parsed artifacts to a sink as they complete.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/rohan/internal/llm"
	"github.com/wesleyorama2/rohan/internal/metrics"
)

// Defaults for Options.
const (
	DefaultWorkers   = 4
	DefaultBatchSize = 5
)

// Options configures a Generator.
type Options struct {
	// Completer performs completions, including any rate limiting.
	Completer llm.Completer
	Workers   int
	BatchSize int
	PromptDir string
	// Recorder, when set, receives the latency of every completion call.
	Recorder *metrics.Recorder
	// Observer, when set, sees every result as it completes, failures
	// included.
	Observer Observer
	Logger   zerolog.Logger
}

// Generator runs plan and build passes.
type Generator struct {
	completer *timed
	pool      *Pool
	observer  Observer
	promptDir string
	log       zerolog.Logger
}

// New creates a Generator.
func New(opts Options) (*Generator, error) {
	if opts.Completer == nil {
		return nil, errors.New("generator: completer is required")
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	log := opts.Logger.With().Str("component", "generator").Logger()

	return &Generator{
		completer: &timed{inner: opts.Completer, recorder: opts.Recorder},
		pool: &Pool{
			Workers:   opts.Workers,
			BatchSize: opts.BatchSize,
			Logger:    log,
		},
		promptDir: opts.PromptDir,
		observer:  opts.Observer,
		log:       log,
	}, nil
}

// PlanInput is the parsed API description handed to CreatePlan.
type PlanInput struct {
	APITitle   string
	APIVersion string
	// SpecText is the raw document, used to derive E2E scenario outlines.
	SpecText   string
	Operations []OperationItem
}

// CreatePlan produces a TestPlan. Per-item failures are reported in the
// Report and leave gaps in the plan; the error is non-nil only for
// run-level failures (outline derivation, cancellation).
func (g *Generator) CreatePlan(ctx context.Context, in PlanInput, e2e bool) (*TestPlan, Report, error) {
	builder := NewBuilder(g.promptDir, in.APITitle, in.APIVersion)
	plan := &TestPlan{APITitle: in.APITitle, APIVersion: in.APIVersion, E2E: e2e}

	var items []WorkItem
	mode := ModeUnitPlan
	if e2e {
		mode = ModeE2EPlan
		outlines, err := g.deriveOutlines(ctx, builder, in.SpecText)
		if err != nil {
			return nil, Report{}, err
		}
		for _, o := range outlines {
			items = append(items, o)
		}
	} else {
		for _, op := range in.Operations {
			items = append(items, op)
		}
	}

	results, err := g.run(ctx, items, func(ctx context.Context, batch Batch, emit func(Result)) {
		g.planBatch(ctx, builder, mode, batch, emit)
	}, nil)
	report := newReport(results)

	for _, r := range results {
		switch a := r.Artifact.(type) {
		case TestEntries:
			plan.Tests = append(plan.Tests, a...)
		case ScenarioArtifact:
			plan.Scenarios = append(plan.Scenarios, a.Scenario)
		}
	}
	if plan.Tests == nil && !e2e {
		plan.Tests = []TestEntry{}
	}
	return plan, report, err
}

// BuildScripts generates one script per test (or scenario) in plan. Each
// finished script is passed to callback as soon as it is ready.
func (g *Generator) BuildScripts(ctx context.Context, plan *TestPlan, callback Callback) (Report, error) {
	if err := plan.Validate(); err != nil {
		return Report{}, newError(KindIO, "", err)
	}
	builder := NewBuilder(g.promptDir, plan.APITitle, plan.APIVersion)

	items, err := scriptItems(plan)
	if err != nil {
		return Report{}, err
	}
	mode := ModeUnitScript
	if plan.E2E {
		mode = ModeE2EScript
	}

	results, err := g.run(ctx, items, func(ctx context.Context, batch Batch, emit func(Result)) {
		g.scriptBatch(ctx, builder, mode, batch, emit)
	}, callback)
	return newReport(results), err
}

func (g *Generator) run(ctx context.Context, items []WorkItem, process ProcessFunc, callback Callback) ([]Result, error) {
	agg := NewAggregator(len(items), callback, g.observer, g.log)
	err := g.pool.Run(ctx, items, process, agg)
	return agg.Close(), err
}

func (g *Generator) deriveOutlines(ctx context.Context, builder *Builder, specText string) ([]ScenarioItem, error) {
	req, err := builder.BuildOutline(specText)
	if err != nil {
		return nil, classify("", err)
	}
	reply, err := g.completer.Complete(ctx, req)
	if err != nil {
		return nil, completionError(ctx, "", err)
	}
	outlines, bad, err := parseOutlines(reply)
	if err != nil {
		return nil, classify("", err)
	}
	for _, b := range bad {
		g.log.Warn().Err(b.error()).Msg("dropping malformed scenario outline")
	}
	if len(outlines) == 0 {
		return nil, newError(KindParse, "", errors.New("no scenario outlines derived from the API description"))
	}
	g.log.Debug().Int("scenarios", len(outlines)).Msg("derived scenario outlines")
	return outlines, nil
}

// planBatch issues one request for the whole batch and attributes the
// returned elements back to its items.
func (g *Generator) planBatch(ctx context.Context, builder *Builder, mode Mode, batch Batch, emit func(Result)) {
	failAll := func(err error) {
		for i, item := range batch.Items {
			emit(Result{Index: batch.Index(i), Name: item.ItemName(), Err: classify(item.ItemName(), err)})
		}
	}

	req, err := builder.Build(mode, batch.Items...)
	if err != nil {
		failAll(err)
		return
	}
	reply, err := g.completer.Complete(ctx, req)
	if err != nil {
		for i, item := range batch.Items {
			emit(Result{Index: batch.Index(i), Name: item.ItemName(), Err: completionError(ctx, item.ItemName(), err)})
		}
		return
	}

	var results []Result
	if mode == ModeE2EPlan {
		results, err = attributeScenarios(batch, reply, g.log)
	} else {
		results, err = attributeEntries(batch, reply, g.log)
	}
	if err != nil {
		failAll(err)
		return
	}
	for _, r := range results {
		emit(r)
	}
}

// scriptBatch issues one request per item.
func (g *Generator) scriptBatch(ctx context.Context, builder *Builder, mode Mode, batch Batch, emit func(Result)) {
	for i, item := range batch.Items {
		r := Result{Index: batch.Index(i), Name: item.ItemName()}
		if err := ctx.Err(); err != nil {
			r.Err = newError(KindCanceled, item.ItemName(), err)
			emit(r)
			continue
		}

		code, err := g.script(ctx, builder, mode, item)
		if err != nil {
			r.Err = completionError(ctx, item.ItemName(), err)
		} else {
			r.Artifact = Script{Name: item.ItemName(), Code: code}
		}
		emit(r)
	}
}

func (g *Generator) script(ctx context.Context, builder *Builder, mode Mode, item WorkItem) (string, error) {
	req, err := builder.Build(mode, item)
	if err != nil {
		return "", err
	}
	reply, err := g.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return ExtractCode(reply)
}

func attributeEntries(batch Batch, reply string, log zerolog.Logger) ([]Result, error) {
	entries, bad, err := parseTestEntries(reply)
	if err != nil {
		return nil, err
	}

	n := len(batch.Items)
	found := make([]TestEntries, n)
	failed := make([]*Error, n)

	slot := make(map[string]int, n)
	for i, item := range batch.Items {
		if op, ok := item.(OperationItem); ok {
			key := operationKey(op.Method, op.Path)
			if _, dup := slot[key]; !dup {
				slot[key] = i
			}
		}
	}
	locate := func(method, path string) (int, bool) {
		if n == 1 {
			return 0, true
		}
		i, ok := slot[operationKey(method, path)]
		return i, ok
	}

	for _, e := range entries {
		i, ok := locate(e.Method, e.Path)
		if !ok {
			log.Debug().Str("test", e.Name).Str("method", e.Method).Str("path", e.Path).Msg("dropping test entry for unknown operation")
			continue
		}
		found[i] = append(found[i], e)
	}
	for _, b := range bad {
		i, ok := locate(b.Method, b.Path)
		if !ok {
			log.Warn().Err(b.error()).Msg("dropping malformed test entry")
			continue
		}
		if failed[i] == nil {
			failed[i] = newError(KindParse, batch.Items[i].ItemName(), fmt.Errorf("malformed test entry %d: %w", b.Index, b.Err))
		}
	}

	results := make([]Result, n)
	for i, item := range batch.Items {
		r := Result{Index: batch.Index(i), Name: item.ItemName()}
		switch {
		case failed[i] != nil:
			r.Err = failed[i]
		case len(found[i]) == 0:
			r.Err = newError(KindParse, item.ItemName(), errors.New("reply has no valid test entry for this operation"))
		default:
			r.Artifact = found[i]
		}
		results[i] = r
	}
	return results, nil
}

func attributeScenarios(batch Batch, reply string, log zerolog.Logger) ([]Result, error) {
	scenarios, bad, err := parseScenarios(reply)
	if err != nil {
		return nil, err
	}

	n := len(batch.Items)
	found := make([]*Scenario, n)
	failed := make([]*Error, n)

	slot := make(map[string]int, n)
	for i, item := range batch.Items {
		key := scenarioKey(item.ItemName())
		if _, dup := slot[key]; !dup {
			slot[key] = i
		}
	}
	locate := func(name string) (int, bool) {
		if i, ok := slot[scenarioKey(name)]; ok {
			return i, true
		}
		return 0, n == 1
	}

	for k := range scenarios {
		s := scenarios[k]
		i, ok := locate(s.Name)
		if !ok {
			log.Debug().Str("scenario", s.Name).Msg("dropping scenario with unknown name")
			continue
		}
		if found[i] == nil {
			found[i] = &s
		}
	}
	for _, b := range bad {
		i, ok := locate(b.Name)
		if !ok {
			log.Warn().Err(b.error()).Msg("dropping malformed scenario")
			continue
		}
		if failed[i] == nil {
			failed[i] = newError(KindParse, batch.Items[i].ItemName(), fmt.Errorf("malformed scenario %d: %w", b.Index, b.Err))
		}
	}

	results := make([]Result, n)
	for i, item := range batch.Items {
		r := Result{Index: batch.Index(i), Name: item.ItemName()}
		switch {
		case failed[i] != nil:
			r.Err = failed[i]
		case found[i] == nil:
			r.Err = newError(KindParse, item.ItemName(), errors.New("reply has no valid scenario with this name"))
		default:
			r.Artifact = ScenarioArtifact{Scenario: *found[i]}
		}
		results[i] = r
	}
	return results, nil
}

// scriptItems turns a plan's tests or scenarios into work items.
func scriptItems(plan *TestPlan) ([]WorkItem, error) {
	var items []WorkItem
	if plan.E2E {
		for _, s := range plan.Scenarios {
			steps := make([]string, 0, len(s.Steps))
			for _, st := range s.Steps {
				steps = append(steps, describeStep(st))
			}
			items = append(items, ScenarioItem{Name: s.Name, Steps: steps})
		}
		return items, nil
	}

	for _, t := range plan.Tests {
		frag, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, newError(KindIO, t.Name, fmt.Errorf("encoding test entry: %w", err))
		}
		items = append(items, OperationItem{Name: t.Name, Method: t.Method, Path: t.Path, Fragment: string(frag)})
	}
	return items, nil
}

func describeStep(st Step) string {
	var sb strings.Builder
	sb.WriteString(st.Method)
	sb.WriteString(" ")
	sb.WriteString(st.Path)
	if st.Description != "" {
		sb.WriteString(" - ")
		sb.WriteString(st.Description)
	} else if st.Name != "" {
		sb.WriteString(" - ")
		sb.WriteString(st.Name)
	}
	if st.ExpectedStatus != 0 {
		fmt.Fprintf(&sb, " (expect %d)", st.ExpectedStatus)
	}
	return sb.String()
}
