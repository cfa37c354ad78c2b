package transport

// RequestSnapshot is the `request` object of §6's egress format, captured
// by internal/ingest for the request this entry describes.
type RequestSnapshot struct {
	RID         string            `json:"rid"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Path        string            `json:"path"`
	Status      int               `json:"status"`
	DurMs       int64             `json:"durMs"`
	Headers     map[string]string `json:"headers,omitempty"`
	Key         string            `json:"key,omitempty"`
	Body        interface{}       `json:"body,omitempty"`
	Params      interface{}       `json:"params,omitempty"`
	Query       interface{}       `json:"query,omitempty"`
	RespBody    interface{}       `json:"respBody,omitempty"`
	EntryPoint  string            `json:"entryPoint,omitempty"`
	Trace       interface{}       `json:"trace,omitempty"`
}

// TraceBatchMeta tags a trace-batch entry so the receiver can reconstruct
// the full event list from its chunks.
type TraceBatchMeta struct {
	RID   string `json:"rid"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// Entry is one element of the egress envelope's `entries` array. Exactly
// one of Request, DB, Email, Trace, or TraceBatch is expected to be set
// per entry in practice, but the wire shape leaves all optional.
type Entry struct {
	ActionID   string           `json:"actionId"`
	Request    *RequestSnapshot `json:"request,omitempty"`
	DB         interface{}      `json:"db,omitempty"`
	Email      interface{}      `json:"email,omitempty"`
	Trace      string           `json:"trace,omitempty"` // JSON-encoded event array
	TraceBatch *TraceBatchMeta  `json:"traceBatch,omitempty"`
	T          int64            `json:"t"` // emit timestamp, ms since epoch
}

// Envelope is the full POST body §6 specifies.
type Envelope struct {
	Entries []Entry `json:"entries"`
}
