package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// DefaultDNSHost is resolved when a ProbeSet does not name one.
const DefaultDNSHost = "example.com"

// Issue labels emitted by the evaluator. The aggregator matches on their text.
const (
	IssueOffline               = "Offline"
	IssueDNSProblem            = "DNS Resolution Problem"
	IssueDNSCheckFailed        = "DNS Resolution Check Failed"
	IssueMeasurementFailed     = "Latency and Packet Loss Check Failed"
	IssueSlowConnection        = "Slow Network Connection"
	IssueConnectionUnavailable = "Connection Type Unavailable"
	IssueConnectionInfoFailed  = "Connection Info Check Failed"
)

var slowConnectionTypes = map[string]struct{}{
	"slow-2g": {},
	"2g":      {},
}

// verdict is the finding text attached to one severity tier of a metric rule.
type verdict struct {
	issue          string
	recommendation string
}

// metricRule evaluates one measured value against its threshold band.
type metricRule struct {
	metric   string
	value    func(models.HealthMeasurement) float64
	verdicts map[models.Severity]verdict
}

// metricRules is the threshold-driven rule table. Adding a metric means adding a
// row here and a band to models.Thresholds.
var metricRules = []metricRule{
	{
		metric: models.MetricLatency,
		value:  func(m models.HealthMeasurement) float64 { return m.LatencyMS },
		verdicts: map[models.Severity]verdict{
			models.SeverityCritical: {"Extreme Network Latency", "Switch to Ethernet and restart your router."},
			models.SeverityHigh:     {"High Network Latency", "Reduce network load and check router placement."},
			models.SeverityMedium:   {"Moderate Latency", "Pause background downloads or streaming apps."},
		},
	},
	{
		metric: models.MetricPacketLoss,
		value:  func(m models.HealthMeasurement) float64 { return m.PacketLoss },
		verdicts: map[models.Severity]verdict{
			models.SeverityCritical: {"Severe Packet Loss", "Try a wired connection and contact your ISP. This level of loss is unacceptable."},
			models.SeverityHigh:     {"High Packet Loss", "Check cables, switch to Ethernet, and minimize interference."},
			models.SeverityMedium:   {"Mild Packet Loss", "Reboot your modem and check for interference."},
		},
	},
}

// rule inspects collected probe results and returns zero or more findings.
type rule func(models.ProbeResults) []models.Finding

// Evaluator runs the diagnostic rule battery over collected probe results.
type Evaluator struct {
	thresholds models.Thresholds
	rules      []rule
}

// NewEvaluator validates the threshold table and builds the rule battery.
func NewEvaluator(thresholds models.Thresholds) (*Evaluator, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	e := &Evaluator{thresholds: thresholds}
	e.rules = []rule{dnsRule, e.measurementRule, connectionRule}
	return e, nil
}

// Thresholds returns the table the evaluator was built with.
func (e *Evaluator) Thresholds() models.Thresholds {
	return e.thresholds
}

// Collect queries every probe and records outcomes as plain data. Probe errors
// and panics are captured in the results; only a missing probe is an error.
// When the device is offline the remaining probes are not called.
func (e *Evaluator) Collect(ctx context.Context, probes ProbeSet) (models.ProbeResults, error) {
	if err := probes.validate(); err != nil {
		return models.ProbeResults{}, err
	}

	var results models.ProbeResults
	results.OnlineErr = guard(func() error {
		results.Online = probes.Connectivity.IsOnline(ctx)
		return nil
	})
	if !results.Online {
		return results, nil
	}

	host := probes.DNSHost
	if host == "" {
		host = DefaultDNSHost
	}
	results.DNS.Err = guard(func() error {
		resolved, err := probes.DNS.Resolve(ctx, host)
		results.DNS.Resolved = resolved
		return err
	})
	results.Health.Err = guard(func() error {
		measurement, err := probes.Health.Measure(ctx)
		results.Health.Measurement = measurement
		return err
	})
	results.Connection.Err = guard(func() error {
		kind, err := probes.Connection.EffectiveType(ctx)
		results.Connection.Type = kind
		return err
	})

	return results, nil
}

// Evaluate applies every rule to the results. It has no side effects, so equal
// inputs always produce equal findings.
func (e *Evaluator) Evaluate(results models.ProbeResults) []models.Finding {
	if !results.Online {
		return []models.Finding{{
			Issue:          IssueOffline,
			Severity:       models.SeverityCritical,
			Recommendation: "Your device is offline. Please connect to a network.",
		}}
	}

	findings := make([]models.Finding, 0, 4)
	for _, r := range e.rules {
		findings = append(findings, r(results)...)
	}
	return findings
}

// EvaluateProbes is Collect followed by Evaluate.
func (e *Evaluator) EvaluateProbes(ctx context.Context, probes ProbeSet) ([]models.Finding, error) {
	results, err := e.Collect(ctx, probes)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(results), nil
}

func dnsRule(results models.ProbeResults) []models.Finding {
	switch {
	case results.DNS.Err != nil:
		return []models.Finding{{
			Issue:          IssueDNSCheckFailed,
			Severity:       models.SeverityHigh,
			Recommendation: "Ensure DNS server is reachable. Try changing DNS settings.",
		}}
	case !results.DNS.Resolved:
		return []models.Finding{{
			Issue:          IssueDNSProblem,
			Severity:       models.SeverityHigh,
			Recommendation: "Use CloudFlare DNS (1.1.1.1) or Google DNS (8.8.8.8).",
		}}
	default:
		return nil
	}
}

// measurementRule runs the metric table, or reports that there was nothing to
// measure when the health probe failed.
func (e *Evaluator) measurementRule(results models.ProbeResults) []models.Finding {
	if results.Health.Err != nil {
		return []models.Finding{{
			Issue:          IssueMeasurementFailed,
			Severity:       models.SeverityCritical,
			Recommendation: "Could not gather performance metrics. Ensure the health probe is reachable.",
		}}
	}

	var findings []models.Finding
	for _, mr := range metricRules {
		band, ok := e.thresholds.Band(mr.metric)
		if !ok {
			continue
		}
		severity, hit := band.Classify(mr.value(results.Health.Measurement))
		if !hit {
			continue
		}
		v := mr.verdicts[severity]
		findings = append(findings, models.Finding{Issue: v.issue, Severity: severity, Recommendation: v.recommendation})
	}
	return findings
}

func connectionRule(results models.ProbeResults) []models.Finding {
	if results.Connection.Err != nil {
		return []models.Finding{{
			Issue:          IssueConnectionInfoFailed,
			Severity:       models.SeverityLow,
			Recommendation: "Unable to check connection quality.",
		}}
	}

	kind := strings.ToLower(strings.TrimSpace(results.Connection.Type))
	if kind == "" || kind == "unknown" {
		return []models.Finding{{
			Issue:          IssueConnectionUnavailable,
			Severity:       models.SeverityLow,
			Recommendation: "Connection type could not be determined.",
		}}
	}
	if _, slow := slowConnectionTypes[kind]; slow {
		return []models.Finding{{
			Issue:          IssueSlowConnection,
			Severity:       models.SeverityHigh,
			Recommendation: "Switch to a faster network like Wi-Fi or 4G/5G.",
		}}
	}
	return nil
}

func (p ProbeSet) validate() error {
	var missing []string
	if p.Connectivity == nil {
		missing = append(missing, "connectivity")
	}
	if p.DNS == nil {
		missing = append(missing, "dns")
	}
	if p.Health == nil {
		missing = append(missing, "health")
	}
	if p.Connection == nil {
		missing = append(missing, "connection")
	}
	if len(missing) > 0 {
		return utils.ContractViolation("collect probes", "missing probes: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return fn()
}
