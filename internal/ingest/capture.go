package ingest

import (
	"bytes"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// bodyWriter tees the response body into an in-memory buffer as gin
// writes it, so a flush can attach a bounded response snapshot to the
// scope without re-reading anything from the wire.
type bodyWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
	max int
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	if w.buf.Len() < w.max {
		remaining := w.max - w.buf.Len()
		if remaining > len(b) {
			remaining = len(b)
		}
		w.buf.Write(b[:remaining])
	}
	return w.ResponseWriter.Write(b)
}

// CaptureResponse installs a bodyWriter ahead of the handler chain so the
// eventual flush can inspect what was actually written, not just what
// gin reports as the status/content-length. maxBytes bounds the tee.
func CaptureResponse(maxBytes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		bw := &bodyWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}, max: maxBytes}
		c.Writer = bw
		c.Set(responseBodyKey, bw)
		c.Next()
	}
}

const responseBodyKey = "tracelens.responseBody"

// ResponseSnapshot returns the captured response bytes and their MIME
// type for this request — the response's Content-Type header when one is
// set, otherwise a type sniffed from the bytes — or ok=false if
// CaptureResponse wasn't installed.
func ResponseSnapshot(c *gin.Context) (body []byte, mime string, ok bool) {
	v, exists := c.Get(responseBodyKey)
	if !exists {
		return nil, "", false
	}
	bw, ok := v.(*bodyWriter)
	if !ok {
		return nil, "", false
	}
	data := bw.buf.Bytes()
	if ct := bw.Header().Get("Content-Type"); ct != "" {
		return data, ct, true
	}
	detected := mimetype.Detect(data)
	return data, detected.String(), true
}

// IsTextual reports whether mime is a type worth attaching verbatim to a
// trace event rather than replacing with a placeholder — binary payloads
// (images, archives, fonts) aren't useful in a trace viewer.
func IsTextual(mime string) bool {
	if mime == "" {
		return false
	}
	for _, prefix := range []string{"text/", "application/json", "application/xml", "application/javascript"} {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}
