package bus

import (
	"regexp"
	"strings"

	"github.com/tracelens/agent/internal/match"
)

// FilePatternKind selects how a file pattern is matched, per §4.6: file
// patterns are "substring, filename-suffix, or regex".
type FilePatternKind int

const (
	FileSubstring FilePatternKind = iota
	FileSuffix
	FileRegex
)

// FilePattern is one declarative file-drop rule.
type FilePattern struct {
	Kind  FilePatternKind
	Value string
	re    *regexp.Regexp
}

// NewFileRegexPattern compiles a regex file pattern.
func NewFileRegexPattern(expr string) (FilePattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return FilePattern{}, err
	}
	return FilePattern{Kind: FileRegex, Value: expr, re: re}, nil
}

func (p FilePattern) matches(file string) bool {
	norm := match.Normalize(file)
	switch p.Kind {
	case FileSubstring:
		return strings.Contains(norm, p.Value)
	case FileSuffix:
		return strings.HasSuffix(norm, p.Value)
	case FileRegex:
		return p.re != nil && p.re.MatchString(norm)
	default:
		return false
	}
}

// Rule is a compound drop rule over {function-name, file, inferred
// library, function kind, event phase}; a zero-valued field means "don't
// constrain on this dimension". All non-zero fields must match for the
// rule to drop an event.
type Rule struct {
	FuncName string
	File     string
	Library  string
	Kind     Kind
	Phase    Phase
}

func (r Rule) matches(e Event) bool {
	if r.FuncName != "" && r.FuncName != e.FuncName {
		return false
	}
	if r.File != "" && r.File != e.File {
		return false
	}
	if r.Library != "" && r.Library != InferLibrary(e.File) {
		return false
	}
	if r.Kind != "" && r.Kind != e.Kind {
		return false
	}
	if r.Phase != "" && r.Phase != e.Phase {
		return false
	}
	return true
}

// InferLibrary returns the first path segment under a node_modules
// directory, or "" when the file isn't inside one — §4.6's "inferred
// library".
func InferLibrary(file string) string {
	norm := match.Normalize(file)
	const marker = "node_modules/"
	idx := strings.LastIndex(norm, marker)
	if idx < 0 {
		return ""
	}
	rest := norm[idx+len(marker):]
	segments := strings.SplitN(rest, "/", 3)
	if len(segments) == 0 {
		return ""
	}
	if strings.HasPrefix(segments[0], "@") && len(segments) > 1 {
		return segments[0] + "/" + segments[1]
	}
	return segments[0]
}

// Filter drops events matching any configured file pattern, dropped kind,
// compound rule, or user predicate.
type Filter struct {
	filePatterns []FilePattern
	droppedKinds map[Kind]struct{}
	rules        []Rule
	predicates   []func(Event) bool
}

// NewFilter creates an empty filter; use the With* methods to add rules.
func NewFilter() *Filter {
	return &Filter{droppedKinds: make(map[Kind]struct{})}
}

func (f *Filter) WithFilePattern(p FilePattern) *Filter {
	f.filePatterns = append(f.filePatterns, p)
	return f
}

func (f *Filter) WithDroppedKind(k Kind) *Filter {
	f.droppedKinds[k] = struct{}{}
	return f
}

func (f *Filter) WithRule(r Rule) *Filter {
	f.rules = append(f.rules, r)
	return f
}

func (f *Filter) WithPredicate(p func(Event) bool) *Filter {
	f.predicates = append(f.predicates, p)
	return f
}

// Drop reports whether e should be dropped.
func (f *Filter) Drop(e Event) bool {
	for _, p := range f.filePatterns {
		if p.matches(e.File) {
			return true
		}
	}
	if _, ok := f.droppedKinds[e.Kind]; ok {
		return true
	}
	for _, r := range f.rules {
		if r.matches(e) {
			return true
		}
	}
	for _, p := range f.predicates {
		if p(e) {
			return true
		}
	}
	return false
}

// Wrap returns a Subscriber that only forwards events Filter doesn't drop.
func (f *Filter) Wrap(next Subscriber) Subscriber {
	return func(e Event) {
		if f.Drop(e) {
			return
		}
		next(e)
	}
}
