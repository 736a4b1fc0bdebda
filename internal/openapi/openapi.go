// Package openapi reads API description documents and extracts their
// operations in document order.
package openapi

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/rohan/pkg/jsonschema"
)

const documentSchemaJSON = `{
	"type": "object",
	"required": ["openapi", "info", "paths"],
	"properties": {
		"openapi": {"type": "string", "pattern": "^3\\.[0-9]+(\\.[0-9]+)?"},
		"info": {
			"type": "object",
			"required": ["title", "version"],
			"properties": {
				"title": {"type": "string"},
				"version": {"type": "string"}
			}
		},
		"paths": {
			"type": "object",
			"additionalProperties": {"type": "object"}
		}
	}
}`

var documentSchema = jsonschema.MustCompile("openapi_document.json", documentSchemaJSON)

var methods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Document is a validated API description.
type Document struct {
	Title   string
	Version string
	// JSON is the document as JSON, converted from YAML when needed.
	JSON       string
	Paths      int
	Operations []Operation
}

// Operation is one method on one path.
type Operation struct {
	ID     string
	Name   string
	Method string
	Path   string
	// Fragment is the operation object's raw JSON.
	Fragment string
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return Parse(data, ext == ".yaml" || ext == ".yml")
}

// Parse parses a JSON document, or a YAML one when isYAML is set.
func Parse(data []byte, isYAML bool) (*Document, error) {
	text := strings.TrimSpace(string(data))
	if isYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse spec as YAML: %w", err)
		}
		text = converted
	}
	if text == "" {
		return nil, fmt.Errorf("failed to parse spec: empty document")
	}
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("failed to parse spec as JSON")
	}

	if errs := documentSchema.ValidateJSON([]byte(text)); len(errs) > 0 {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", errs)
	}

	doc := &Document{
		Title:   gjson.Get(text, "info.title").String(),
		Version: gjson.Get(text, "info.version").String(),
		JSON:    text,
	}

	gjson.Get(text, "paths").ForEach(func(p, item gjson.Result) bool {
		doc.Paths++
		item.ForEach(func(m, op gjson.Result) bool {
			method := strings.ToLower(m.String())
			if !methods[method] || !op.IsObject() {
				return true
			}
			id := op.Get("operationId").String()
			doc.Operations = append(doc.Operations, Operation{
				ID:       id,
				Name:     operationName(id, method, p.String()),
				Method:   strings.ToUpper(method),
				Path:     p.String(),
				Fragment: op.Raw,
			})
			return true
		})
		return true
	})

	return doc, nil
}

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

// operationName is the operationId, or method and path joined with
// underscores when there is none.
func operationName(id, method, path string) string {
	if id != "" {
		return id
	}
	slug := strings.Trim(nonWord.ReplaceAllString(path, "_"), "_")
	if slug == "" {
		return method + "_root"
	}
	return method + "_" + strings.ToLower(slug)
}
