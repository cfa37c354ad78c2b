package assembler

import (
	"github.com/bytedance/sonic"

	"github.com/tracelens/agent/internal/bus"
)

// DefaultBatchSize bounds how many events one transport payload carries.
const DefaultBatchSize = 200

// Config controls Assemble's batching.
type Config struct {
	BatchSize int
}

// DefaultConfig returns the batching defaults.
func DefaultConfig() Config {
	return Config{BatchSize: DefaultBatchSize}
}

// Assembler turns a scope's raw, as-received event list into the ordered,
// balanced batches §4.8 and §6's egress format describe. It holds no
// per-scope state — every call to Assemble is a pure function of its
// input, since the Assembler only ever runs once, at flush time.
type Assembler struct {
	cfg Config
}

// New creates an Assembler with cfg. A zero BatchSize falls back to
// DefaultBatchSize.
func New(cfg Config) *Assembler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Assembler{cfg: cfg}
}

// Assemble balances unmatched enters, reorders the result into a
// depth-first linearization of the span tree, and splits it into
// fixed-size batches tagged with scopeID.
func (a *Assembler) Assemble(scopeID string, events []bus.Event) []Batch {
	balanced := balance(events)
	ordered := reorder(balanced)
	return split(scopeID, ordered, a.cfg.BatchSize)
}

// EncodeBatch renders a Batch as the JSON string the `trace` field of a
// trace-batch egress entry carries (§6's Egress format).
func (a *Assembler) EncodeBatch(b Batch) (string, error) {
	data, err := sonic.Marshal(b.Events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
