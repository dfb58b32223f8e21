package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// ErrNoResponse is returned when every sampling attempt failed.
var ErrNoResponse = errors.New("no response from host")

// TCPSampler measures round trips by timing repeated TCP handshakes against a
// target, the same way ping times ICMP echoes.
type TCPSampler struct {
	target   string
	count    int
	interval time.Duration
	timeout  time.Duration
	dial     dialFunc
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewTCPSampler builds a health probe that makes count attempts.
func NewTCPSampler(target string, count int, interval, timeout time.Duration) *TCPSampler {
	if count <= 0 {
		count = 4
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPSampler{
		target:   target,
		count:    count,
		interval: interval,
		timeout:  timeout,
		dial:     defaultDial,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Measure runs the attempts and reports mean RTT, loss percentage, mean
// absolute difference between consecutive RTTs and the failed attempt count.
func (s *TCPSampler) Measure(ctx context.Context) (models.HealthMeasurement, error) {
	rtts := make([]float64, 0, s.count)
	failures := 0
	for i := 0; i < s.count; i++ {
		if i > 0 && s.interval > 0 {
			if err := s.sleep(ctx, s.interval); err != nil {
				return models.HealthMeasurement{}, err
			}
		}
		dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
		start := s.now()
		conn, err := s.dial(dialCtx, "tcp", s.target)
		elapsed := s.now().Sub(start)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return models.HealthMeasurement{}, ctx.Err()
			}
			failures++
			continue
		}
		_ = conn.Close()
		rtts = append(rtts, utils.ToMillis(elapsed))
	}
	if len(rtts) == 0 {
		return models.HealthMeasurement{}, fmt.Errorf("sample %s: %w", s.target, ErrNoResponse)
	}
	return summarize(rtts, failures, s.count), nil
}

func summarize(rtts []float64, failures, attempts int) models.HealthMeasurement {
	var sum float64
	for _, v := range rtts {
		sum += v
	}
	var jitter float64
	if len(rtts) > 1 {
		for i := 1; i < len(rtts); i++ {
			jitter += math.Abs(rtts[i] - rtts[i-1])
		}
		jitter /= float64(len(rtts) - 1)
	}
	return models.HealthMeasurement{
		LatencyMS:  sum / float64(len(rtts)),
		PacketLoss: float64(failures) / float64(attempts) * 100,
		JitterMS:   jitter,
		ErrorCount: failures,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HealthPayload is the JSON document served by a /network-health endpoint.
type HealthPayload struct {
	Status     string   `json:"status"`
	Reason     string   `json:"reason"`
	Latency    *float64 `json:"latency,omitempty"`
	PacketLoss *float64 `json:"packetLoss,omitempty"`
	Jitter     float64  `json:"jitter,omitempty"`
	Errors     int      `json:"errors,omitempty"`
}

// HTTPHealth reads measurements from a remote /network-health endpoint.
type HTTPHealth struct {
	url        string
	httpClient *http.Client
}

// NewHTTPHealth targets the given endpoint URL.
func NewHTTPHealth(url string, timeout time.Duration) *HTTPHealth {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPHealth{url: strings.TrimSpace(url), httpClient: &http.Client{Timeout: timeout}}
}

// Measure fetches and decodes one measurement. Payloads without latency or
// packet loss are failures.
func (h *HTTPHealth) Measure(ctx context.Context) (models.HealthMeasurement, error) {
	if h.url == "" {
		return models.HealthMeasurement{}, errors.New("health endpoint URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return models.HealthMeasurement{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return models.HealthMeasurement{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.HealthMeasurement{}, fmt.Errorf("health endpoint returned %s", resp.Status)
	}

	var payload HealthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.HealthMeasurement{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Latency == nil || payload.PacketLoss == nil {
		reason := payload.Reason
		if reason == "" {
			reason = "missing latency or packet loss"
		}
		return models.HealthMeasurement{}, fmt.Errorf("health endpoint: %s", reason)
	}
	return models.HealthMeasurement{
		LatencyMS:  *payload.Latency,
		PacketLoss: *payload.PacketLoss,
		JitterMS:   payload.Jitter,
		ErrorCount: payload.Errors,
	}, nil
}

// NewHealthPayload grades a measurement the way the /network-health endpoint
// reports it: critical above 50% loss or 500 ms, warning above 10% or 200 ms.
func NewHealthPayload(m models.HealthMeasurement) HealthPayload {
	latency, loss := m.LatencyMS, m.PacketLoss
	payload := HealthPayload{Latency: &latency, PacketLoss: &loss, Jitter: m.JitterMS, Errors: m.ErrorCount}
	switch {
	case loss >= 100:
		payload.Status, payload.Reason = "critical", "No response from host."
		payload.Latency, payload.PacketLoss = nil, nil
	case loss > 50 || latency > 500:
		payload.Status = "critical"
		payload.Reason = fmt.Sprintf("High latency: %.1f ms, %.0f%% packet loss.", latency, loss)
	case loss > 10 || latency > 200:
		payload.Status = "warning"
		payload.Reason = fmt.Sprintf("Moderate latency: %.1f ms, %.0f%% packet loss.", latency, loss)
	default:
		payload.Status = "healthy"
		payload.Reason = fmt.Sprintf("Stable connection: %.1f ms, %.0f%% packet loss.", latency, loss)
	}
	return payload
}
