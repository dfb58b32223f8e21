package extractors

import (
	"fmt"
	"math"
	"strings"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

const (
	defaultMediumZ = 2.0
	defaultHighZ   = 3.0
	// stdDevFloor keeps a zero-variance baseline from dividing by zero.
	stdDevFloor = 1e-6
)

// DetectorOptions tunes the z-score cutoffs. Zero values fall back to 2.0 / 3.0.
type DetectorOptions struct {
	MediumZ float64
	HighZ   float64
}

// AnomalyDetector flags sample fields that sit far from their historical baseline.
type AnomalyDetector struct {
	mediumZ float64
	highZ   float64
}

// NewAnomalyDetector creates a z-score detector.
func NewAnomalyDetector(opts DetectorOptions) (*AnomalyDetector, error) {
	if opts.MediumZ <= 0 {
		opts.MediumZ = defaultMediumZ
	}
	if opts.HighZ <= 0 {
		opts.HighZ = defaultHighZ
	}
	if opts.HighZ < opts.MediumZ {
		return nil, fmt.Errorf("high z cutoff %.2f below medium cutoff %.2f", opts.HighZ, opts.MediumZ)
	}
	return &AnomalyDetector{mediumZ: opts.MediumZ, highZ: opts.HighZ}, nil
}

// Detect scores each sample field against the baseline. Fields without a
// baseline use their own value as the mean, so a first observation never flags.
func (d *AnomalyDetector) Detect(sample *models.MetricSample, baseline models.BaselineSet) ([]models.Anomaly, error) {
	if sample == nil {
		return nil, utils.ContractViolation("detect anomalies", "sample is required", nil)
	}
	if err := sample.Validate(); err != nil {
		return nil, utils.ContractViolation("detect anomalies", "invalid sample", err)
	}

	anomalies := make([]models.Anomaly, 0)
	for _, field := range models.SampleFields {
		value, _ := sample.Value(field)
		stats, ok := baseline[field]
		if !ok {
			stats = models.Baseline{Mean: value}
		}

		z := math.Abs(value-stats.Mean) / math.Max(stats.StdDev, stdDevFloor)
		if z <= d.mediumZ {
			continue
		}
		severity := models.SeverityMedium
		if z > d.highZ {
			severity = models.SeverityHigh
		}
		anomalies = append(anomalies, models.Anomaly{
			Field:       field,
			Value:       value,
			Severity:    severity,
			Description: fmt.Sprintf("Unusual %s detected", fieldLabel(field)),
			ZScore:      z,
		})
	}

	return anomalies, nil
}

// Analyze runs Detect and wraps the outcome with a summary.
func (d *AnomalyDetector) Analyze(sample *models.MetricSample, baseline models.BaselineSet) (models.AnomalyReport, error) {
	anomalies, err := d.Detect(sample, baseline)
	if err != nil {
		return models.AnomalyReport{}, err
	}
	report := Summarize(anomalies)
	report.Timestamp = sample.Timestamp
	return report, nil
}

// Summarize builds the human-readable analysis block for a set of anomalies.
func Summarize(anomalies []models.Anomaly) models.AnomalyReport {
	report := models.AnomalyReport{
		Anomalies: anomalies,
		Summary:   "Network performing normally",
		Details:   make([]string, 0, len(anomalies)),
	}
	if report.Anomalies == nil {
		report.Anomalies = []models.Anomaly{}
	}
	if len(anomalies) > 0 {
		report.Summary = "Network issues detected"
	}
	for _, a := range anomalies {
		report.Details = append(report.Details, a.Description)
	}
	return report
}

func fieldLabel(field string) string {
	label := strings.TrimSuffix(field, "_ms")
	return strings.ReplaceAll(label, "_", " ")
}
