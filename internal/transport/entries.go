package transport

import (
	"github.com/bytedance/sonic"

	"github.com/tracelens/agent/internal/assembler"
)

// BuildTraceEntries turns the assembler's batches for one scope into the
// trace-batch entries §6's egress format describes: each batch's event
// list is JSON-encoded into the `trace` string field, tagged with a
// TraceBatchMeta carrying {rid, index, total}.
func BuildTraceEntries(batches []assembler.Batch, rid string, emitMs int64) ([]Entry, error) {
	entries := make([]Entry, 0, len(batches))
	for _, b := range batches {
		data, err := sonic.Marshal(b.Events)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			ActionID: rid,
			Trace:    string(data),
			TraceBatch: &TraceBatchMeta{
				RID:   rid,
				Index: b.Index,
				Total: b.Total,
			},
			T: emitMs,
		})
	}
	return entries, nil
}
