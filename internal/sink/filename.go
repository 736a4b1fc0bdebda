// Package sink persists generated scripts: one file per artifact written
// atomically, plus a manifest flushed once at the end of a build.
package sink

import "strings"

// FileName derives the script file name for a test name. Runs of
// non-alphanumeric characters become a single underscore, leading and
// trailing underscores are dropped and ASCII letters are lower-cased.
func FileName(name string) string {
	var sb strings.Builder
	pending := false
	for _, r := range name {
		if isAlnum(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(toLowerASCII(r))
			continue
		}
		pending = true
	}

	base := sb.String()
	if base == "" {
		base = "unnamed"
	}
	return "test_" + base + ".js"
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
