package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wesleyorama2/rohan/internal/llm"
)

// Builder turns work items into completion requests. Templates come from
// prompt override files in Dir when present, otherwise the built-in
// defaults. Each template is loaded at most once per Builder.
type Builder struct {
	dir        string
	apiTitle   string
	apiVersion string

	mu    sync.Mutex
	cache map[Mode]loadedTemplate
}

type loadedTemplate struct {
	text string
	err  error
}

// NewBuilder creates a Builder. dir may be empty.
func NewBuilder(dir, apiTitle, apiVersion string) *Builder {
	return &Builder{
		dir:        dir,
		apiTitle:   apiTitle,
		apiVersion: apiVersion,
		cache:      make(map[Mode]loadedTemplate),
	}
}

// Build renders the request for items under mode. Script modes take exactly
// one item. Failures are *Error with KindTemplate.
func (b *Builder) Build(mode Mode, items ...WorkItem) (llm.Request, error) {
	if mode == ModeE2EOutline {
		return llm.Request{}, newError(KindTemplate, "", errors.New("outline prompts are built with BuildOutline"))
	}
	if len(items) == 0 {
		return llm.Request{}, newError(KindTemplate, "", errors.New("no items to render"))
	}
	if mode.IsScript() && len(items) != 1 {
		return llm.Request{}, newError(KindTemplate, "", fmt.Errorf("%s prompts take one item, got %d", mode, len(items)))
	}

	tmpl, err := b.template(mode)
	if err != nil {
		return llm.Request{}, err
	}

	body, err := renderItems(mode, items)
	if err != nil {
		return llm.Request{}, newError(KindTemplate, "", err)
	}
	return b.request(tmpl, templates[mode].placeholder, body), nil
}

// BuildOutline renders the request that derives scenario outlines from the
// raw API description.
func (b *Builder) BuildOutline(specText string) (llm.Request, error) {
	tmpl, err := b.template(ModeE2EOutline)
	if err != nil {
		return llm.Request{}, err
	}
	return b.request(tmpl, templates[ModeE2EOutline].placeholder, specText), nil
}

func (b *Builder) request(tmpl, placeholder, body string) llm.Request {
	r := strings.NewReplacer(
		placeholder, body,
		"{{api_title}}", b.apiTitle,
		"{{api_version}}", b.apiVersion,
	)
	return llm.Request{Messages: []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: r.Replace(tmpl)},
	}}
}

func (b *Builder) template(mode Mode) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.cache[mode]; ok {
		return t.text, t.err
	}
	text, err := b.load(mode)
	b.cache[mode] = loadedTemplate{text: text, err: err}
	return text, err
}

func (b *Builder) load(mode Mode) (string, error) {
	spec, ok := templates[mode]
	if !ok {
		return "", newError(KindTemplate, "", fmt.Errorf("unknown mode %d", mode))
	}
	if b.dir == "" {
		return spec.text, nil
	}

	path := filepath.Join(b.dir, spec.file)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return spec.text, nil
	}
	if err != nil {
		return "", newError(KindTemplate, "", fmt.Errorf("reading %s: %w", path, err))
	}

	text := string(data)
	if !strings.Contains(text, spec.placeholder) {
		return "", newError(KindTemplate, "", fmt.Errorf("%s is missing required placeholder %s", path, spec.placeholder))
	}
	return text, nil
}

func renderItems(mode Mode, items []WorkItem) (string, error) {
	switch mode {
	case ModeUnitPlan:
		ops := make([]operationView, 0, len(items))
		for _, item := range items {
			op, ok := item.(OperationItem)
			if !ok {
				return "", fmt.Errorf("%s prompt needs operations, got %T", mode, item)
			}
			ops = append(ops, newOperationView(op))
		}
		out, err := json.MarshalIndent(ops, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil

	case ModeE2EPlan:
		var sb strings.Builder
		for i, item := range items {
			sc, ok := item.(ScenarioItem)
			if !ok {
				return "", fmt.Errorf("%s prompt needs scenarios, got %T", mode, item)
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			writeScenario(&sb, sc)
		}
		return sb.String(), nil

	case ModeUnitScript:
		op, ok := items[0].(OperationItem)
		if !ok {
			return "", fmt.Errorf("%s prompt needs a test entry, got %T", mode, items[0])
		}
		if op.Fragment != "" {
			return op.Fragment, nil
		}
		return fmt.Sprintf("%s: %s %s", op.Name, op.Method, op.Path), nil

	case ModeE2EScript:
		sc, ok := items[0].(ScenarioItem)
		if !ok {
			return "", fmt.Errorf("%s prompt needs a scenario, got %T", mode, items[0])
		}
		var sb strings.Builder
		writeScenario(&sb, sc)
		return sb.String(), nil
	}
	return "", fmt.Errorf("unsupported mode %s", mode)
}

type operationView struct {
	Name      string          `json:"name"`
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Operation json.RawMessage `json:"operation,omitempty"`
}

func newOperationView(op OperationItem) operationView {
	v := operationView{Name: op.Name, Method: op.Method, Path: op.Path}
	if op.Fragment != "" && json.Valid([]byte(op.Fragment)) {
		v.Operation = json.RawMessage(op.Fragment)
	}
	return v
}

func writeScenario(sb *strings.Builder, sc ScenarioItem) {
	fmt.Fprintf(sb, "Scenario: %s\n", sc.Name)
	for i, step := range sc.Steps {
		fmt.Fprintf(sb, "  %d. %s\n", i+1, step)
	}
}
