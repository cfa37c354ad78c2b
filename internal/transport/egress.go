package transport

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/tracelens/agent/internal/telemetry/config"
	"github.com/tracelens/agent/internal/telemetry/errs"
	"github.com/tracelens/agent/internal/telemetry/logging"
	"github.com/tracelens/agent/internal/telemetry/metrics"
)

// Sender POSTs assembled batches to the ingestion API per §6's Egress
// format, under the configured app identity headers.
type Sender struct {
	client  *Client
	cfg     config.EgressConfig
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewSender builds a Sender and installs the app-identity headers
// (X-App-Id, X-App-Secret, X-Tenant-Id, optional X-App-Name) once, per
// §6's Headers (outbound).
func NewSender(cfg config.EgressConfig, rps float64, logger *logging.Logger, m *metrics.Metrics) *Sender {
	client := NewClient(rps)
	client.SetHeader("X-App-Id", cfg.AppID)
	client.SetHeader("X-App-Secret", cfg.AppSecret)
	client.SetHeader("X-Tenant-Id", cfg.TenantID)
	if cfg.AppName != "" {
		client.SetHeader("X-App-Name", cfg.AppName)
	}
	return &Sender{client: client, cfg: cfg, logger: logger, metrics: m}
}

// Send encodes entries as a single envelope and POSTs it to
// {apiBase}/v1/sessions/{sessionId}/backend. A per-request nonce header
// distinguishes retried deliveries for the receiver's own dedup logic.
// Errors are logged and returned wrapped in errs.ErrTransportFailed for
// the caller to drop, per §7 — never retried beyond the client's own
// retry policy, never buffered to disk.
func (s *Sender) Send(ctx context.Context, sessionID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	body, err := sonic.Marshal(Envelope{Entries: entries})
	if err != nil {
		s.logger.Warn(fmt.Sprintf("transport: encode envelope failed: %v", err))
		return fmt.Errorf("%w: %v", errs.ErrTransportFailed, err)
	}

	gzipped := s.cfg.Gzip
	if gzipped {
		body, err = gzipBytes(body)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("transport: gzip envelope failed: %v", err))
			gzipped = false
			body, _ = sonic.Marshal(Envelope{Entries: entries})
		}
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/backend", s.cfg.APIBase, sessionID)
	s.client.SetHeader("X-Request-Nonce", uuid.New().String())

	_, err = s.client.Post(ctx, url, body, gzipped)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TransportErrors.Inc()
		}
		s.logger.Warn(fmt.Sprintf("transport: egress POST failed for scope %s: %v", sessionID, err))
		return fmt.Errorf("%w: %v", errs.ErrTransportFailed, err)
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
