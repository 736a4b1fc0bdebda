package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/rohan/pkg/jsonschema"
)

const testEntrySchemaJSON = `{
	"type": "object",
	"required": ["name", "method", "path"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"method": {"type": "string", "minLength": 1},
		"path": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"expected_status": {"type": "integer"},
		"assertions": {"type": "array", "items": {"type": "string"}}
	}
}`

const scenarioSchemaJSON = `{
	"type": "object",
	"required": ["name", "steps"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["method", "path"],
				"properties": {
					"name": {"type": "string"},
					"method": {"type": "string", "minLength": 1},
					"path": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"expected_status": {"type": "integer"}
				}
			}
		}
	}
}`

const outlineSchemaJSON = `{
	"type": "object",
	"required": ["name", "steps"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"steps": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
	}
}`

var (
	testEntrySchema = jsonschema.MustCompile("test_entry.json", testEntrySchemaJSON)
	scenarioSchema  = jsonschema.MustCompile("scenario.json", scenarioSchemaJSON)
	outlineSchema   = jsonschema.MustCompile("scenario_outline.json", outlineSchemaJSON)

	fenceRe = regexp.MustCompile("(?s)```([A-Za-z0-9_+.-]*)[^\n]*\n(.*?)```")
)

// badElement is an array element that failed validation. The identifying
// fields are whatever could be read from it, for attribution.
type badElement struct {
	Index  int
	Name   string
	Method string
	Path   string
	Err    error
}

func (b badElement) error() error {
	return newError(KindParse, b.Name, fmt.Errorf("element %d: %w", b.Index, b.Err))
}

type codeBlock struct {
	lang string
	body string
}

func codeBlocks(reply string) []codeBlock {
	var blocks []codeBlock
	for _, m := range fenceRe.FindAllStringSubmatch(reply, -1) {
		blocks = append(blocks, codeBlock{lang: strings.ToLower(m[1]), body: m[2]})
	}
	return blocks
}

// ExtractCode returns the script in reply's fenced code block, preferring a
// javascript block when there are several.
func ExtractCode(reply string) (string, error) {
	blocks := codeBlocks(reply)
	if len(blocks) == 0 {
		return "", newError(KindParse, "", errors.New("reply contains no code block"))
	}

	chosen := blocks[0]
	for _, b := range blocks {
		if b.lang == "javascript" || b.lang == "js" {
			chosen = b
			break
		}
	}

	code := strings.TrimSpace(chosen.body)
	if code == "" {
		return "", newError(KindParse, "", errors.New("reply code block is empty"))
	}
	return code + "\n", nil
}

// jsonArray locates the JSON array in reply: a fenced block if there is
// one, else the whole reply, else the outermost [...] span.
func jsonArray(reply string) (gjson.Result, error) {
	text := strings.TrimSpace(reply)
	for _, b := range codeBlocks(reply) {
		if b.lang == "" || b.lang == "json" {
			text = strings.TrimSpace(b.body)
			break
		}
	}

	if !gjson.Valid(text) {
		start := strings.IndexByte(text, '[')
		end := strings.LastIndexByte(text, ']')
		if start < 0 || end <= start || !gjson.Valid(text[start:end+1]) {
			return gjson.Result{}, newError(KindParse, "", errors.New("reply is not valid JSON"))
		}
		text = text[start : end+1]
	}

	res := gjson.Parse(text)
	if !res.IsArray() {
		return gjson.Result{}, newError(KindParse, "", errors.New("reply is not a JSON array"))
	}
	return res, nil
}

// eachValid validates every element of the array in reply against schema
// and decodes the valid ones with decode.
func eachValid(reply string, schema *jsonschema.Schema, decode func(raw string) error) ([]badElement, error) {
	arr, err := jsonArray(reply)
	if err != nil {
		return nil, err
	}

	var bad []badElement
	i := 0
	arr.ForEach(func(_, el gjson.Result) bool {
		idx := i
		i++
		mark := func(err error) {
			bad = append(bad, badElement{
				Index:  idx,
				Name:   el.Get("name").String(),
				Method: el.Get("method").String(),
				Path:   el.Get("path").String(),
				Err:    err,
			})
		}

		if errs := schema.ValidateJSON([]byte(el.Raw)); len(errs) > 0 {
			mark(errs)
			return true
		}
		if err := decode(el.Raw); err != nil {
			mark(err)
		}
		return true
	})
	return bad, nil
}

func parseTestEntries(reply string) ([]TestEntry, []badElement, error) {
	var entries []TestEntry
	bad, err := eachValid(reply, testEntrySchema, func(raw string) error {
		var e TestEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return err
		}
		e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
		entries = append(entries, e)
		return nil
	})
	return entries, bad, err
}

func parseScenarios(reply string) ([]Scenario, []badElement, error) {
	var scenarios []Scenario
	bad, err := eachValid(reply, scenarioSchema, func(raw string) error {
		var s Scenario
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return err
		}
		for i := range s.Steps {
			s.Steps[i].Method = strings.ToUpper(strings.TrimSpace(s.Steps[i].Method))
		}
		scenarios = append(scenarios, s)
		return nil
	})
	return scenarios, bad, err
}

func parseOutlines(reply string) ([]ScenarioItem, []badElement, error) {
	var outlines []ScenarioItem
	bad, err := eachValid(reply, outlineSchema, func(raw string) error {
		var o struct {
			Name  string   `json:"name"`
			Steps []string `json:"steps"`
		}
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return err
		}
		outlines = append(outlines, ScenarioItem{Name: o.Name, Steps: o.Steps})
		return nil
	})
	return outlines, bad, err
}

// operationKey identifies an operation by upper-cased method and path
// without a trailing slash.
func operationKey(method, path string) string {
	path = strings.TrimSpace(path)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + path
}

func scenarioKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
