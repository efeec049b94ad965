// Package audit records security-relevant authentication and authorization
// events: sign-ins, logouts, membership changes, token issuance and
// revocation. Audit records are kept separate from application logs because
// they have different consumers and retention requirements — application logs
// are ephemeral debug output, while audit records may be subject to
// compliance retention measured in years. Multiple simultaneous sinks (file,
// webhook) are supported so records can reach a SIEM independently of the
// logging pipeline.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// Event is one audit record
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Action         string    `json:"action"`
	UserID         string    `json:"user_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	AuthMethod     string    `json:"auth_method,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	Path           string    `json:"path,omitempty"`
	StatusCode     int       `json:"status_code,omitempty"`
}

// Sink receives audit events
type Sink interface {
	Write(ctx context.Context, e *Event) error
	Close() error
}

// Config selects which sinks a Recorder writes to. A zero Config produces a
// disabled recorder whose Record is a no-op.
type Config struct {
	File    *FileConfig
	Webhook *WebhookConfig
}

// FileConfig configures the append-only JSON-lines audit file
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// WebhookConfig configures POSTing each event to an HTTP endpoint
type WebhookConfig struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Recorder fans events out to all configured sinks. Sink failures are logged
// and never propagate to the request path: a broken audit destination must
// not take authentication down with it.
type Recorder struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewRecorder builds a recorder from config. Sinks that fail to initialize
// abort construction so a misconfigured audit trail is caught at startup,
// not discovered during an incident.
func NewRecorder(cfg Config) (*Recorder, error) {
	r := &Recorder{}

	if cfg.File != nil {
		sink, err := NewFileSink(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("audit file sink: %w", err)
		}
		r.sinks = append(r.sinks, sink)
	}

	if cfg.Webhook != nil {
		r.sinks = append(r.sinks, NewWebhookSink(cfg.Webhook))
	}

	return r, nil
}

// Enabled reports whether any sink is configured
func (r *Recorder) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks) > 0
}

// Record writes the event to every sink
func (r *Recorder) Record(ctx context.Context, e *Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sink := range r.sinks {
		if err := sink.Write(ctx, e); err != nil {
			slog.Error("audit sink write failed", "action", e.Action, "error", err)
		}
	}
}

// Close closes all sinks
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			lastErr = err
		}
	}
	r.sinks = nil
	return lastErr
}

// FileSink appends events as JSON lines to a file, rotating by size
type FileSink struct {
	cfg  *FileConfig
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the audit file
func NewFileSink(cfg *FileConfig) (*FileSink, error) {
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return &FileSink{cfg: cfg, file: file}, nil
}

// Write appends one JSON line
func (s *FileSink) Write(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxSizeMB > 0 {
		if info, err := s.file.Stat(); err == nil && info.Size() > int64(s.cfg.MaxSizeMB)*1024*1024 {
			if err := s.rotate(); err != nil {
				slog.Warn("audit file rotation failed", "error", err)
			}
		}
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// rotate shifts existing backups up by one and starts a fresh file
func (s *FileSink) rotate() error {
	if err := s.file.Close(); err != nil {
		return err
	}

	for i := s.cfg.MaxBackups - 1; i >= 1; i-- {
		_ = os.Rename(
			fmt.Sprintf("%s.%d", s.cfg.Path, i),
			fmt.Sprintf("%s.%d", s.cfg.Path, i+1),
		)
	}
	_ = os.Rename(s.cfg.Path, s.cfg.Path+".1")
	if s.cfg.MaxBackups > 0 {
		_ = os.Remove(fmt.Sprintf("%s.%d", s.cfg.Path, s.cfg.MaxBackups+1))
	}

	file, err := os.OpenFile(s.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	s.file = file
	return nil
}

// Close closes the file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// WebhookSink POSTs each event to an HTTP endpoint as JSON
type WebhookSink struct {
	cfg    *WebhookConfig
	client *http.Client
}

// NewWebhookSink creates a webhook sink
func NewWebhookSink(cfg *WebhookConfig) *WebhookSink {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Write sends the event
func (s *WebhookSink) Write(ctx context.Context, e *Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send audit webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("audit webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no persistent resources
func (s *WebhookSink) Close() error { return nil }
