package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/netdoctor/netdoctor/internal/models"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *float64:
			*p = r.values[i].(float64)
		}
	}
	return nil
}

type fakeDB struct {
	row      fakeRow
	queries  []string
	args     [][]any
	execSQL  []string
	execArgs [][]any
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return f.row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestSampleHistoryGet(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{int64(40), 120.5, 15.25}}}
	history := newSampleHistory(db, 0)

	b, ok, err := history.Get(context.Background(), models.FieldLatency)
	if err != nil || !ok {
		t.Fatalf("expected baseline, ok=%v err=%v", ok, err)
	}
	if b.Mean != 120.5 || b.StdDev != 15.25 {
		t.Fatalf("unexpected baseline %+v", b)
	}
	if !strings.Contains(db.queries[0], "latency_ms::DOUBLE PRECISION") {
		t.Fatalf("query does not target latency column: %s", db.queries[0])
	}
	if db.args[0][0] != DefaultWindow {
		t.Fatalf("expected default window, got %v", db.args[0][0])
	}
}

func TestSampleHistoryNeedsTwoSamples(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{int64(1), 50.0, 0.0}}}
	if _, ok, err := newSampleHistory(db, 10).Get(context.Background(), models.FieldJitter); err != nil || ok {
		t.Fatalf("expected no baseline from a single sample, ok=%v err=%v", ok, err)
	}
}

func TestSampleHistoryRejectsUnknownField(t *testing.T) {
	db := &fakeDB{}
	if _, _, err := newSampleHistory(db, 10).Get(context.Background(), "latency; DROP TABLE x"); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if len(db.queries) != 0 {
		t.Fatalf("unknown field must not reach the database")
	}
}

func TestSampleHistoryQueryError(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: errors.New("timeout")}}
	if _, _, err := newSampleHistory(db, 10).Get(context.Background(), models.FieldErrorCount); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestSampleHistoryRecordSample(t *testing.T) {
	db := &fakeDB{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sample := models.MetricSample{Timestamp: at, LatencyMS: 42, PacketLoss: 0.5, JitterMS: 3, ErrorCount: 1}

	if err := newSampleHistory(db, 10).RecordSample(context.Background(), sample); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(db.execArgs) != 1 || db.execArgs[0][0] != at || db.execArgs[0][1] != 42.0 {
		t.Fatalf("unexpected insert args %+v", db.execArgs)
	}
}
