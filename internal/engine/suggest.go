package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netdoctor/netdoctor/internal/models"
)

//go:embed packs/default_tips.yaml
var defaultTipPack []byte

// TipPack is the YAML root of a remediation pack.
type TipPack struct {
	Offline OfflineRule `yaml:"offline"`
	Ignore  []string    `yaml:"ignore"`
	Stable  string      `yaml:"stable"`
	Topics  []TopicRule `yaml:"topics"`
}

// OfflineRule short-circuits aggregation when any issue matches.
type OfflineRule struct {
	Match       []string `yaml:"match"`
	Suggestions []string `yaml:"suggestions"`
}

// TopicRule appends generic tips when an actionable issue mentions a keyword.
type TopicRule struct {
	ID    string   `yaml:"id"`
	Match []string `yaml:"match"`
	Tips  []string `yaml:"tips"`
}

// Aggregator turns findings into an ordered, deduplicated fix list.
type Aggregator struct {
	pack   TipPack
	logger *slog.Logger
}

// NewAggregator loads the tip pack at path. An empty or missing path uses the
// built-in pack.
func NewAggregator(path string, logger *slog.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data := defaultTipPack
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			data = raw
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("tip pack not found, using built-in pack", slog.String("path", path))
		default:
			return nil, fmt.Errorf("read tip pack: %w", err)
		}
	}

	pack, err := ParseTipPack(data)
	if err != nil {
		return nil, err
	}
	return &Aggregator{pack: pack, logger: logger}, nil
}

// ParseTipPack decodes and validates a YAML tip pack.
func ParseTipPack(data []byte) (TipPack, error) {
	var pack TipPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return TipPack{}, fmt.Errorf("parse tip pack: %w", err)
	}
	if len(pack.Offline.Suggestions) == 0 {
		return TipPack{}, fmt.Errorf("tip pack: offline suggestions are required")
	}
	if strings.TrimSpace(pack.Stable) == "" {
		return TipPack{}, fmt.Errorf("tip pack: stable message is required")
	}
	return pack, nil
}

// Suggest prioritises findings into human-readable suggestions. Urgent and
// important recommendations come first in finding order, followed by topic
// tips in pack order. Each string appears once.
func (a *Aggregator) Suggest(findings []models.Finding) []string {
	issues := make([]string, len(findings))
	for i, f := range findings {
		issues[i] = strings.ToLower(f.Issue)
	}

	if anyContains(issues, a.pack.Offline.Match) {
		return appendUnique(nil, a.pack.Offline.Suggestions...)
	}

	actionable := make([]models.Finding, 0, len(findings))
	for i, f := range findings {
		if f.Severity == models.SeverityLow || containsAny(issues[i], a.pack.Ignore) {
			continue
		}
		actionable = append(actionable, f)
	}
	if len(actionable) == 0 {
		return []string{a.pack.Stable}
	}

	suggestions := make([]string, 0, len(actionable)+8)
	actionableIssues := make([]string, 0, len(actionable))
	for _, f := range actionable {
		actionableIssues = append(actionableIssues, strings.ToLower(f.Issue))
		suggestions = appendUnique(suggestions, prefixed(f))
	}

	// Topic tips follow the actionable findings only, so low findings add none.
	for _, topic := range a.pack.Topics {
		if anyContains(actionableIssues, topic.Match) {
			a.logger.Debug("topic tips matched", slog.String("topic", topic.ID))
			suggestions = appendUnique(suggestions, topic.Tips...)
		}
	}
	return suggestions
}

func prefixed(f models.Finding) string {
	switch f.Severity {
	case models.SeverityCritical:
		return "Urgent: " + f.Recommendation
	case models.SeverityHigh:
		return "Important: " + f.Recommendation
	default:
		return f.Recommendation
	}
}

func anyContains(texts []string, keywords []string) bool {
	for _, text := range texts {
		if containsAny(text, keywords) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
