package engine

import (
	"context"
	"errors"

	"github.com/netdoctor/netdoctor/internal/models"
)

type fakeProbes struct {
	online       bool
	dnsOK        bool
	dnsErr       error
	measurement  models.HealthMeasurement
	measureErr   error
	connType     string
	connErr      error
	panicMeasure bool
	panicOnline  bool

	dnsCalls     int
	measureCalls int
	resolvedHost string
}

func (f *fakeProbes) IsOnline(context.Context) bool {
	if f.panicOnline {
		panic("connectivity probe exploded")
	}
	return f.online
}

func (f *fakeProbes) Resolve(_ context.Context, host string) (bool, error) {
	f.dnsCalls++
	f.resolvedHost = host
	return f.dnsOK, f.dnsErr
}

func (f *fakeProbes) Measure(context.Context) (models.HealthMeasurement, error) {
	f.measureCalls++
	if f.panicMeasure {
		panic("probe exploded")
	}
	return f.measurement, f.measureErr
}

func (f *fakeProbes) EffectiveType(context.Context) (string, error) {
	return f.connType, f.connErr
}

func (f *fakeProbes) set() ProbeSet {
	return ProbeSet{Connectivity: f, DNS: f, Health: f, Connection: f}
}

// healthyProbes returns probes that produce no findings at all.
func healthyProbes() *fakeProbes {
	return &fakeProbes{
		online:      true,
		dnsOK:       true,
		measurement: models.HealthMeasurement{LatencyMS: 40, PacketLoss: 0, JitterMS: 5},
		connType:    "4g",
	}
}

var errProbe = errors.New("probe unreachable")

type fakeStats struct {
	baselines models.BaselineSet
	err       error
}

func (f *fakeStats) Get(_ context.Context, field string) (models.Baseline, bool, error) {
	if f.err != nil {
		return models.Baseline{}, false, f.err
	}
	b, ok := f.baselines[field]
	return b, ok, nil
}

type fakeResponder struct{}

func (fakeResponder) Answer(text string) models.ClassifiedAnswer {
	return models.ClassifiedAnswer{Response: "echo: " + text, Confidence: 1, Category: models.CategoryGreeting}
}
