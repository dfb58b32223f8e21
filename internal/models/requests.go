package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DiagnosticsRequest asks for one diagnostics run. Without Measurements the
// live probes are used.
type DiagnosticsRequest struct {
	DNSHost      string        `json:"dns_host,omitempty"`
	Measurements *Measurements `json:"measurements,omitempty"`
}

// Measurements are caller-observed probe values. Online and DNSResolved
// default to true when omitted.
type Measurements struct {
	Online         *bool   `json:"online,omitempty"`
	DNSResolved    *bool   `json:"dns_resolved,omitempty"`
	LatencyMS      float64 `json:"latency_ms"`
	PacketLoss     float64 `json:"packet_loss"`
	JitterMS       float64 `json:"jitter_ms"`
	ErrorCount     int     `json:"error_count"`
	ConnectionType string  `json:"connection_type"`
}

// IsOnline resolves the Online default.
func (m Measurements) IsOnline() bool { return m.Online == nil || *m.Online }

// Resolved resolves the DNSResolved default.
func (m Measurements) Resolved() bool { return m.DNSResolved == nil || *m.DNSResolved }

// Health returns the latency/loss part of the measurements.
func (m Measurements) Health() HealthMeasurement {
	return HealthMeasurement{LatencyMS: m.LatencyMS, PacketLoss: m.PacketLoss, JitterMS: m.JitterMS, ErrorCount: m.ErrorCount}
}

// AnalyzeRequest is the wire form of a metric sample. Timestamp may be an
// RFC3339 string or unix milliseconds; errors is accepted for error_count.
type AnalyzeRequest struct {
	Timestamp  json.RawMessage `json:"timestamp,omitempty"`
	LatencyMS  *float64        `json:"latency_ms"`
	PacketLoss *float64        `json:"packet_loss"`
	JitterMS   *float64        `json:"jitter_ms"`
	ErrorCount *int            `json:"error_count,omitempty"`
	Errors     *int            `json:"errors,omitempty"`
}

// TimestampText returns the raw timestamp without JSON quoting.
func (r AnalyzeRequest) TimestampText() string {
	raw := strings.TrimSpace(string(r.Timestamp))
	if raw == "null" {
		return ""
	}
	return strings.Trim(raw, `"`)
}

// MissingFields lists required values absent from the request.
func (r AnalyzeRequest) MissingFields() error {
	var errs []error
	if r.LatencyMS == nil {
		errs = append(errs, errors.New("latency_ms is required"))
	}
	if r.PacketLoss == nil {
		errs = append(errs, errors.New("packet_loss is required"))
	}
	if r.JitterMS == nil {
		errs = append(errs, errors.New("jitter_ms is required"))
	}
	if r.ErrorCount == nil && r.Errors == nil {
		errs = append(errs, errors.New("error_count is required"))
	}
	return errors.Join(errs...)
}

// Sample converts a complete request; call MissingFields first.
func (r AnalyzeRequest) Sample(at time.Time) MetricSample {
	count := r.ErrorCount
	if count == nil {
		count = r.Errors
	}
	return MetricSample{Timestamp: at, LatencyMS: *r.LatencyMS, PacketLoss: *r.PacketLoss, JitterMS: *r.JitterMS, ErrorCount: *count}
}

// AskRequest carries a free-text question.
type AskRequest struct {
	Query string `json:"query"`
}
