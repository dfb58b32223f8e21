// Package repo supplies historical baselines for anomaly detection: a static
// table from configuration, a Postgres sample history, and a caching layer.
package repo

import (
	"context"

	"github.com/netdoctor/netdoctor/internal/models"
)

// StaticStats serves baselines from a fixed table.
type StaticStats struct {
	baselines models.BaselineSet
}

// NewStaticStats copies the table; nil uses models.DefaultBaselines.
func NewStaticStats(baselines models.BaselineSet) *StaticStats {
	if baselines == nil {
		baselines = models.DefaultBaselines()
	}
	copied := make(models.BaselineSet, len(baselines))
	for field, b := range baselines {
		copied[field] = b
	}
	return &StaticStats{baselines: copied}
}

// Get returns the configured baseline for field.
func (s *StaticStats) Get(_ context.Context, field string) (models.Baseline, bool, error) {
	b, ok := s.baselines[field]
	return b, ok, nil
}
