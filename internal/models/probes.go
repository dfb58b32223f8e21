package models

// DNSResult is the outcome of a DNS probe.
type DNSResult struct {
	Resolved bool
	Err      error
}

// HealthResult is the outcome of a latency/packet-loss probe.
type HealthResult struct {
	Measurement HealthMeasurement
	Err         error
}

// ConnectionResult is the outcome of a connection-type lookup.
type ConnectionResult struct {
	Type string
	Err  error
}

// ProbeResults carries every collaborator outcome of a run as plain data.
// OnlineErr is set when the connectivity probe itself failed; Online is then
// false.
type ProbeResults struct {
	Online     bool
	OnlineErr  error
	DNS        DNSResult
	Health     HealthResult
	Connection ConnectionResult
}
