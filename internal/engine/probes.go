package engine

import (
	"context"

	"github.com/netdoctor/netdoctor/internal/models"
)

// ConnectivityProbe reports whether the device has any network at all.
type ConnectivityProbe interface {
	IsOnline(ctx context.Context) bool
}

// DNSProbe resolves a hostname. A false result without error means the
// resolver answered but the lookup did not succeed.
type DNSProbe interface {
	Resolve(ctx context.Context, hostname string) (bool, error)
}

// HealthProbe measures latency, packet loss, jitter and errors.
type HealthProbe interface {
	Measure(ctx context.Context) (models.HealthMeasurement, error)
}

// ConnectionInfo reports the effective connection type ("4g", "2g", "wifi", ...).
// An empty or "unknown" type means the data is unavailable.
type ConnectionInfo interface {
	EffectiveType(ctx context.Context) (string, error)
}

// HistoricalStats supplies per-field baselines. ok is false when no history exists.
type HistoricalStats interface {
	Get(ctx context.Context, field string) (baseline models.Baseline, ok bool, err error)
}

// ProbeSet bundles the collaborators queried during one run.
type ProbeSet struct {
	Connectivity ConnectivityProbe
	DNS          DNSProbe
	Health       HealthProbe
	Connection   ConnectionInfo
	// DNSHost is the name resolved by the DNS probe; empty uses the evaluator default.
	DNSHost string
}
