package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netdoctor/netdoctor/internal/models"
)

// Schema creates the sample history table.
const Schema = `
CREATE TABLE IF NOT EXISTS metric_samples (
	id          BIGSERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL,
	latency_ms  DOUBLE PRECISION NOT NULL,
	packet_loss DOUBLE PRECISION NOT NULL,
	jitter_ms   DOUBLE PRECISION NOT NULL,
	error_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS metric_samples_recorded_at_idx ON metric_samples (recorded_at DESC);`

// DefaultWindow is how many recent samples form a baseline.
const DefaultWindow = 200

// minSamples is the history size below which no baseline is reported.
const minSamples = 2

// columns whitelists sample fields that may be interpolated into SQL.
var columns = map[string]string{
	models.FieldLatency:    "latency_ms",
	models.FieldPacketLoss: "packet_loss",
	models.FieldJitter:     "jitter_ms",
	models.FieldErrorCount: "error_count",
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store owns the Postgres connection pool.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore connects and pings the database.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// SampleHistory derives baselines from recently recorded samples.
type SampleHistory struct {
	db     querier
	window int
}

// NewSampleHistory wraps a store; window <= 0 uses DefaultWindow.
func NewSampleHistory(store *Store, window int) *SampleHistory {
	return newSampleHistory(store.Pool, window)
}

func newSampleHistory(db querier, window int) *SampleHistory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &SampleHistory{db: db, window: window}
}

// EnsureSchema creates the history table when missing.
func (h *SampleHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create metric_samples: %w", err)
	}
	return nil
}

// Get returns the mean and sample standard deviation of field over the most
// recent window. ok is false while fewer than two samples exist.
func (h *SampleHistory) Get(ctx context.Context, field string) (models.Baseline, bool, error) {
	column, known := columns[field]
	if !known {
		return models.Baseline{}, false, fmt.Errorf("unknown sample field %q", field)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(AVG(v), 0), COALESCE(STDDEV_SAMP(v), 0)
		FROM (SELECT %s::DOUBLE PRECISION AS v FROM metric_samples ORDER BY recorded_at DESC LIMIT $1) recent`, column)

	var (
		count  int64
		mean   float64
		stddev float64
	)
	if err := h.db.QueryRow(ctx, query, h.window).Scan(&count, &mean, &stddev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Baseline{}, false, nil
		}
		return models.Baseline{}, false, fmt.Errorf("query %s baseline: %w", field, err)
	}
	if count < minSamples {
		return models.Baseline{}, false, nil
	}
	return models.Baseline{Mean: mean, StdDev: stddev}, true, nil
}

// RecordSample appends a sample to the history.
func (h *SampleHistory) RecordSample(ctx context.Context, sample models.MetricSample) error {
	_, err := h.db.Exec(ctx, `
		INSERT INTO metric_samples (recorded_at, latency_ms, packet_loss, jitter_ms, error_count)
		VALUES ($1,$2,$3,$4,$5)`,
		sample.Timestamp, sample.LatencyMS, sample.PacketLoss, sample.JitterMS, sample.ErrorCount)
	if err != nil {
		return fmt.Errorf("insert metric sample: %w", err)
	}
	return nil
}
