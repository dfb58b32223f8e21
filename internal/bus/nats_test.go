package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/netdoctor/netdoctor/internal/models"
)

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	r.subject, r.data = subject, data
	return r.err
}

func TestPublishReport(t *testing.T) {
	rc := &recordingConn{}
	p := newPublisher(rc, "")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := models.DiagnosticReport{
		ID:          "r-1",
		Status:      "critical",
		Findings:    []models.Finding{{Issue: "Extreme Network Latency", Severity: models.SeverityCritical}},
		Suggestions: []string{"Urgent: Switch to Ethernet and restart your router."},
		CreatedAt:   created,
	}

	if err := p.PublishReport(context.Background(), report); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if rc.subject != DefaultSubject {
		t.Fatalf("expected default subject, got %s", rc.subject)
	}
	var evt ReportEvent
	if err := json.Unmarshal(rc.data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.ReportID != "r-1" || evt.Status != "critical" || len(evt.Findings) != 1 || !evt.CreatedAt.Equal(created) {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestPublishReportErrors(t *testing.T) {
	rc := &recordingConn{err: errors.New("nats: connection closed")}
	if err := newPublisher(rc, "diag").PublishReport(context.Background(), models.DiagnosticReport{}); err == nil {
		t.Fatalf("expected publish error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	quiet := &recordingConn{}
	if err := newPublisher(quiet, "diag").PublishReport(ctx, models.DiagnosticReport{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if quiet.data != nil {
		t.Fatalf("cancelled publish must not reach the connection")
	}
}
