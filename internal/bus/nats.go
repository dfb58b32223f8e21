// Package bus publishes finished diagnostics reports to NATS.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/netdoctor/netdoctor/internal/models"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "netdoctor.reports"

type conn interface {
	Publish(subject string, data []byte) error
}

// ReportEvent is the message body published for each report.
type ReportEvent struct {
	ReportID    string           `json:"report_id"`
	Status      string           `json:"status"`
	Findings    []models.Finding `json:"findings"`
	Suggestions []string         `json:"suggestions"`
	Anomalies   []models.Anomaly `json:"anomalies"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Publisher sends report events on one subject.
type Publisher struct {
	Conn    *nats.Conn
	pub     conn
	subject string
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	c, err := nats.Connect(url, nats.Name("netdoctor"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	p := newPublisher(c, subject)
	p.Conn = c
	return p, nil
}

func newPublisher(c conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{pub: c, subject: subject}
}

// Subject returns the subject reports are published on.
func (p *Publisher) Subject() string { return p.subject }

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.Conn != nil {
		_ = p.Conn.Drain()
		p.Conn.Close()
	}
}

// PublishReport encodes and publishes the report.
func (p *Publisher) PublishReport(ctx context.Context, report models.DiagnosticReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ReportEvent{
		ReportID:    report.ID,
		Status:      report.Status,
		Findings:    report.Findings,
		Suggestions: report.Suggestions,
		Anomalies:   report.Anomalies,
		CreatedAt:   report.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode report event: %w", err)
	}
	if err := p.pub.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
