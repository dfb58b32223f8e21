package models

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (1) to critical (4). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Finding is one diagnosed issue with a recommended action.
type Finding struct {
	Issue          string   `json:"issue"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// HighestSeverity returns the most severe level across findings, or "" when empty.
func HighestSeverity(findings []Finding) Severity {
	var top Severity
	for _, f := range findings {
		if f.Severity.Rank() > top.Rank() {
			top = f.Severity
		}
	}
	return top
}
