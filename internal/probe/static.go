package probe

import (
	"context"
	"time"

	"github.com/netdoctor/netdoctor/internal/engine"
	"github.com/netdoctor/netdoctor/internal/models"
)

// Static answers every probe from caller-supplied measurements.
type Static struct {
	Online         bool
	DNSResolved    bool
	Measurement    models.HealthMeasurement
	ConnectionType string
}

// IsOnline reports the supplied online flag.
func (s Static) IsOnline(context.Context) bool { return s.Online }

// Resolve reports the supplied DNS outcome for any host.
func (s Static) Resolve(context.Context, string) (bool, error) { return s.DNSResolved, nil }

// Measure returns the supplied measurement; it never fails.
func (s Static) Measure(context.Context) (models.HealthMeasurement, error) {
	return s.Measurement, nil
}

// EffectiveType returns the supplied connection type, possibly empty.
func (s Static) EffectiveType(context.Context) (string, error) { return s.ConnectionType, nil }

// ProbeSet exposes the static values as a full engine.ProbeSet.
func (s Static) ProbeSet() engine.ProbeSet {
	return engine.ProbeSet{Connectivity: s, DNS: s, Health: s, Connection: s}
}

// Health selects the live health measurement source.
type Health string

const (
	HealthTCP  Health = "tcp"
	HealthHTTP Health = "http"
)

// Options configures the live probe set.
type Options struct {
	ConnectivityTargets []string
	DNSHost             string
	Health              Health
	HealthURL           string
	SampleTarget        string
	SampleCount         int
	SampleInterval      time.Duration
	Timeout             time.Duration
	ConnectionType      string
}

// NewLive builds the live probe set.
func NewLive(opts Options) engine.ProbeSet {
	timeout := opts.Timeout
	var health engine.HealthProbe
	switch opts.Health {
	case HealthHTTP:
		health = NewHTTPHealth(opts.HealthURL, timeout)
	default:
		health = NewTCPSampler(opts.SampleTarget, opts.SampleCount, opts.SampleInterval, timeout)
	}
	return engine.ProbeSet{
		Connectivity: NewTCPConnectivity(opts.ConnectivityTargets, timeout),
		DNS:          NewDNSResolver(nil, timeout),
		Health:       health,
		Connection:   StaticConnectionInfo{Type: opts.ConnectionType},
		DNSHost:      opts.DNSHost,
	}
}
