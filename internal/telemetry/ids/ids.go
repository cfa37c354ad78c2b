// Package ids provides centralized ID generation for the tracer.
//
// Span ids use ULIDs: lexicographically sortable, so a naive string sort
// already approximates emission order even before the assembler reorders
// the tree. Scope ids prefer the client-supplied request-start timestamp
// (ms since epoch) when present, falling back to a random UUID.
package ids

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SpanID identifies a single enter/exit pair, unique within the process.
type SpanID string

// ScopeID identifies one logical request's trace.
type ScopeID string

const (
	SpanPrefix = "span"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSpanID generates a new span id.
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

func (id SpanID) String() string { return string(id) }

// NewScopeID builds a scope id from the caller-supplied request-start
// header (milliseconds since epoch) when present, per spec §4.7 point 2.
// When headerMs is empty or unparsable, a random UUID is used instead of
// the local wall clock, to stay collision-free across concurrent requests
// that start within the same millisecond.
func NewScopeID(headerMs string) ScopeID {
	if headerMs != "" {
		if ms, err := strconv.ParseInt(headerMs, 10, 64); err == nil && ms > 0 {
			return ScopeID(strconv.FormatInt(ms, 10))
		}
	}
	return ScopeID(uuid.New().String())
}

func (id ScopeID) String() string { return string(id) }

// IsValidSpan reports whether s parses as a prefixed ULID.
func IsValidSpan(s string) bool {
	const prefixLen = len(SpanPrefix) + 1
	if len(s) <= prefixLen {
		return false
	}
	_, err := ulid.Parse(s[prefixLen:])
	return err == nil
}
