package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

type diagnosticsStub struct {
	lastDiagnose *models.DiagnosticsRequest
	lastAnalyze  *models.AnalyzeRequest
	err          error
}

func (d *diagnosticsStub) Diagnose(_ context.Context, req models.DiagnosticsRequest) (models.DiagnosticReport, error) {
	d.lastDiagnose = &req
	if d.err != nil {
		return models.DiagnosticReport{}, d.err
	}
	return models.DiagnosticReport{
		ID:       "r-1",
		Status:   "critical",
		Findings: []models.Finding{{Issue: "Extreme Network Latency", Severity: models.SeverityCritical}},
	}, nil
}

func (d *diagnosticsStub) Analyze(_ context.Context, req models.AnalyzeRequest) (models.AnomalyReport, error) {
	d.lastAnalyze = &req
	if d.err != nil {
		return models.AnomalyReport{}, d.err
	}
	return models.AnomalyReport{Anomalies: []models.Anomaly{}, Summary: "Network performing normally", Details: []string{}}, nil
}

func (d *diagnosticsStub) Ask(_ context.Context, req models.AskRequest) (models.ClassifiedAnswer, error) {
	if req.Query == "" {
		return models.ClassifiedAnswer{}, utils.ContractViolation("answer query", "query text is required", nil)
	}
	return models.ClassifiedAnswer{Response: "Hello!", Confidence: 1, Category: models.CategoryGreeting}, nil
}

func serve(t *testing.T, stub *diagnosticsStub, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewHandler(nil, stub).Router(time.Second)
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(t, &diagnosticsStub{}, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	stub := &diagnosticsStub{}
	rec := serve(t, stub, http.MethodPost, "/api/v1/diagnostics", `{"measurements":{"latency_ms":600,"packet_loss":1,"connection_type":"4g"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastDiagnose == nil || stub.lastDiagnose.Measurements == nil || stub.lastDiagnose.Measurements.LatencyMS != 600 {
		t.Fatalf("measurements not forwarded: %+v", stub.lastDiagnose)
	}
	var report models.DiagnosticReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.ID != "r-1" || len(report.Findings) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestDiagnosticsEndpointAcceptsEmptyBody(t *testing.T) {
	stub := &diagnosticsStub{}
	rec := serve(t, stub, http.MethodPost, "/api/v1/diagnostics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lastDiagnose == nil || stub.lastDiagnose.Measurements != nil {
		t.Fatalf("expected a live run request, got %+v", stub.lastDiagnose)
	}
}

func TestAnalyzeEndpointAcceptsUnixMillis(t *testing.T) {
	stub := &diagnosticsStub{}
	rec := serve(t, stub, http.MethodPost, "/api/v1/analyze", `{"timestamp":1714564800000,"latency_ms":100,"packet_loss":1,"jitter_ms":8,"errors":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := stub.lastAnalyze.TimestampText(); got != "1714564800000" {
		t.Fatalf("unexpected timestamp text %q", got)
	}
}

func TestEndpointsMapErrors(t *testing.T) {
	cases := []struct {
		name   string
		stub   *diagnosticsStub
		path   string
		body   string
		status int
	}{
		{"malformed json", &diagnosticsStub{}, "/api/v1/analyze", `{"latency_ms":`, http.StatusBadRequest},
		{"blank query", &diagnosticsStub{}, "/api/v1/ask", `{"query":""}`, http.StatusBadRequest},
		{"contract violation", &diagnosticsStub{err: utils.ContractViolation("run diagnostics", "probe missing", nil)}, "/api/v1/diagnostics", `{}`, http.StatusBadRequest},
		{"internal failure", &diagnosticsStub{err: errors.New("boom")}, "/api/v1/diagnostics", `{}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, tc.stub, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestAskEndpoint(t *testing.T) {
	rec := serve(t, &diagnosticsStub{}, http.MethodPost, "/api/v1/ask", `{"query":"hello"}`)
	var answer models.ClassifiedAnswer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if answer.Category != models.CategoryGreeting || answer.Confidence != 1 {
		t.Fatalf("unexpected answer %+v", answer)
	}
}
