package models

import "fmt"

// Metric names understood by the threshold table.
const (
	MetricLatency    = "latency"
	MetricPacketLoss = "packet_loss"
)

// ThresholdBand maps a numeric metric onto severity tiers.
type ThresholdBand struct {
	Warning  float64 `koanf:"warning" yaml:"warning"`
	High     float64 `koanf:"high" yaml:"high"`
	Critical float64 `koanf:"critical" yaml:"critical"`
}

// Validate enforces Warning < High < Critical.
func (b ThresholdBand) Validate() error {
	if !(b.Warning < b.High && b.High < b.Critical) {
		return fmt.Errorf("band must satisfy warning < high < critical, got %v/%v/%v", b.Warning, b.High, b.Critical)
	}
	return nil
}

// Classify returns the tier a value falls into. Comparisons are strict, so a
// value equal to a cutoff stays in the tier below it.
func (b ThresholdBand) Classify(value float64) (Severity, bool) {
	switch {
	case value > b.Critical:
		return SeverityCritical, true
	case value > b.High:
		return SeverityHigh, true
	case value > b.Warning:
		return SeverityMedium, true
	default:
		return "", false
	}
}

// Thresholds is the configurable threshold table.
type Thresholds struct {
	Latency    ThresholdBand `koanf:"latency" yaml:"latency"`
	PacketLoss ThresholdBand `koanf:"packet_loss" yaml:"packet_loss"`
}

// DefaultThresholds returns latency {100,300,500} ms and packet loss {2,10,30} %.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Latency:    ThresholdBand{Warning: 100, High: 300, Critical: 500},
		PacketLoss: ThresholdBand{Warning: 2, High: 10, Critical: 30},
	}
}

// Band looks up a band by metric name.
func (t Thresholds) Band(metric string) (ThresholdBand, bool) {
	switch metric {
	case MetricLatency:
		return t.Latency, true
	case MetricPacketLoss:
		return t.PacketLoss, true
	default:
		return ThresholdBand{}, false
	}
}

// Validate checks every band in the table.
func (t Thresholds) Validate() error {
	if err := t.Latency.Validate(); err != nil {
		return fmt.Errorf("latency: %w", err)
	}
	if err := t.PacketLoss.Validate(); err != nil {
		return fmt.Errorf("packet loss: %w", err)
	}
	return nil
}
