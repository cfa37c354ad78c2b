// Package match resolves the include/exclude pattern lists of §6 into a
// single matcher at startup. Patterns are either globs (bmatcuk/doublestar,
// for "**/node_modules/**" style entries) or, when a pattern looks like a
// regex rather than a glob, a compiled regexp.Regexp — both evaluated
// against a normalized forward-slash path.
package match

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is one compiled include/exclude rule.
type Pattern struct {
	raw   string
	glob  bool
	re    *regexp.Regexp
}

// Compile builds a Pattern from a raw string. A pattern is treated as a
// glob when it contains any of the glob metacharacters doublestar
// recognizes ('*', '?', '[') and is not already anchored with regex-only
// syntax ('^', '$', or a backslash escape); everything else is compiled as
// a regular expression.
func Compile(raw string) (Pattern, error) {
	if looksLikeGlob(raw) {
		if _, err := doublestar.Match(raw, "probe"); err != nil {
			return Pattern{}, err
		}
		return Pattern{raw: raw, glob: true}, nil
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{raw: raw, re: re}, nil
}

func looksLikeGlob(s string) bool {
	if strings.ContainsAny(s, "^$\\") {
		return false
	}
	return strings.ContainsAny(s, "*?[")
}

// Match reports whether path matches this pattern. path is normalized to
// forward slashes first.
func (p Pattern) Match(path string) bool {
	norm := Normalize(path)
	if p.glob {
		ok, _ := doublestar.Match(p.raw, norm)
		return ok
	}
	return p.re.MatchString(norm)
}

// Normalize converts OS path separators to forward slashes, matching the
// "normalized forward-slash path" spec.md §4.6 requires for file-pattern
// matching.
func Normalize(path string) string {
	if filepath.Separator == '/' {
		return path
	}
	return strings.ReplaceAll(path, string(filepath.Separator), "/")
}

// Matcher holds a compiled include/exclude pattern set.
type Matcher struct {
	include []Pattern
	exclude []Pattern
}

// NewMatcher compiles raw include/exclude pattern lists. An invalid
// pattern is skipped rather than failing the whole matcher, since a typo
// in one config entry must never disable instrumentation app-wide.
func NewMatcher(include, exclude []string) *Matcher {
	m := &Matcher{}
	for _, raw := range include {
		if p, err := Compile(raw); err == nil {
			m.include = append(m.include, p)
		}
	}
	for _, raw := range exclude {
		if p, err := Compile(raw); err == nil {
			m.exclude = append(m.exclude, p)
		}
	}
	return m
}

// IsApp reports whether path falls under an include-pattern and outside
// every exclude-pattern — the app-code definition of spec.md §3.
func (m *Matcher) IsApp(path string) bool {
	if len(m.include) == 0 {
		return false
	}
	included := false
	for _, p := range m.include {
		if p.Match(path) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range m.exclude {
		if p.Match(path) {
			return false
		}
	}
	return true
}
