package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sample field names, also used as baseline keys.
const (
	FieldLatency    = "latency_ms"
	FieldPacketLoss = "packet_loss"
	FieldJitter     = "jitter_ms"
	FieldErrorCount = "error_count"
)

// SampleFields lists the detector fields in evaluation order.
var SampleFields = []string{FieldLatency, FieldPacketLoss, FieldJitter, FieldErrorCount}

// MetricSample is one measurement of the connection.
type MetricSample struct {
	Timestamp  time.Time `json:"timestamp"`
	LatencyMS  float64   `json:"latency_ms"`
	PacketLoss float64   `json:"packet_loss"`
	JitterMS   float64   `json:"jitter_ms"`
	ErrorCount int       `json:"error_count"`
}

// Value returns the numeric value stored under a sample field name.
func (s MetricSample) Value(field string) (float64, bool) {
	switch field {
	case FieldLatency:
		return s.LatencyMS, true
	case FieldPacketLoss:
		return s.PacketLoss, true
	case FieldJitter:
		return s.JitterMS, true
	case FieldErrorCount:
		return float64(s.ErrorCount), true
	default:
		return 0, false
	}
}

// Validate checks the sample ranges.
func (s MetricSample) Validate() error {
	var errs []error
	for _, field := range SampleFields {
		v, _ := s.Value(field)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite", field))
			continue
		}
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", field))
		}
	}
	if s.PacketLoss > 100 {
		errs = append(errs, fmt.Errorf("%s must be within [0,100]", FieldPacketLoss))
	}
	return errors.Join(errs...)
}

// HealthMeasurement is what a health probe reports.
type HealthMeasurement struct {
	LatencyMS  float64 `json:"latency_ms"`
	PacketLoss float64 `json:"packet_loss"`
	JitterMS   float64 `json:"jitter_ms"`
	ErrorCount int     `json:"error_count"`
}

// Sample stamps the measurement into a MetricSample.
func (m HealthMeasurement) Sample(at time.Time) MetricSample {
	return MetricSample{
		Timestamp:  at,
		LatencyMS:  m.LatencyMS,
		PacketLoss: m.PacketLoss,
		JitterMS:   m.JitterMS,
		ErrorCount: m.ErrorCount,
	}
}

// Baseline is the historical mean and standard deviation of a field.
type Baseline struct {
	Mean   float64 `json:"mean" koanf:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" koanf:"stddev" yaml:"stddev"`
}

// BaselineSet maps sample field names to their baselines.
type BaselineSet map[string]Baseline

// Anomaly is a statistically unusual metric value.
type Anomaly struct {
	Field       string   `json:"field"`
	Value       float64  `json:"value"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	ZScore      float64  `json:"z_score"`
}

// AnomalyReport is the result of analysing one sample.
type AnomalyReport struct {
	Anomalies []Anomaly `json:"anomalies"`
	Summary   string    `json:"summary"`
	Details   []string  `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultBaselines is the static history used when no store is configured.
// Packet loss is in percent.
func DefaultBaselines() BaselineSet {
	return BaselineSet{
		FieldLatency:    {Mean: 100, StdDev: 20},
		FieldPacketLoss: {Mean: 1, StdDev: 0.5},
		FieldJitter:     {Mean: 8, StdDev: 2},
		FieldErrorCount: {Mean: 1, StdDev: 1},
	}
}
