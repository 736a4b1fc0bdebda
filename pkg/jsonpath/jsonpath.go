// Package jsonpath resolves the small JSONPath subset used to locate values
// inside completion-service replies, e.g. "$.choices[0].message.content".
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at path as a string. Objects and arrays are
// returned as raw JSON.
func Extract(json string, path string) (string, error) {
	if json == "" {
		return "", fmt.Errorf("empty JSON string")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.Valid(json) {
		return "", fmt.Errorf("invalid JSON document")
	}

	result := gjson.Get(json, ToGjson(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "", fmt.Errorf("null value at %s", path)
	}
	if result.IsObject() || result.IsArray() {
		return result.Raw, nil
	}
	return result.String(), nil
}

// ToGjson converts a JSONPath expression into gjson path syntax.
//
//	$.choices[0].message.content -> choices.0.message.content
//	$['message']['content']      -> message.content
func ToGjson(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this"
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				cur.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			key := strings.Trim(path[i+1:i+end], `'"`)
			parts = append(parts, escapeKey(key))
			i += end
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	if len(parts) == 0 {
		return "@this"
	}
	return strings.Join(parts, ".")
}

// escapeKey escapes gjson special characters in a bracketed key.
func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
