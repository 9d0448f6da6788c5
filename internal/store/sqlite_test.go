package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/derive"
	"github.com/citylab/crimetab/internal/table"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "crimetab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// snapshotFixture covers every value kind, sentinels included, so the
// round-trip test proves nothing collapses to a plain string.
func snapshotFixture(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"ID", "CODE", "FLAG", "TS"})
	require.NoError(t, err)

	ts := time.Date(2021, 7, 4, 23, 15, 0, 0, time.UTC)
	require.NoError(t, tbl.AppendRow([]table.Value{
		table.String("0192200001"), table.Int(724), table.Bool(true), table.Time(ts),
	}))
	require.NoError(t, tbl.AppendRow([]table.Value{
		table.Missing(), table.Null(), table.Unparseable("maybe"), table.Float(0.5),
	}))
	return tbl
}

func TestSQLite_RunLifecycleAndSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	run, err := s.CreateRun(ctx, "/data", []int{2018, 2019})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	tbl := snapshotFixture(t)
	require.NoError(t, s.SaveSnapshot(ctx, run.ID, tbl))

	run.PerYear = map[int]int{2018: 1, 2019: 1}
	run.Rows = tbl.Len()
	run.Stats = derive.Stats{Rows: 2, ParsedTimestamps: 1, BadTimestamps: 1}
	require.NoError(t, s.CompleteRun(ctx, run))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, RunStatusComplete, latest.Status)
	assert.Equal(t, map[int]int{2018: 1, 2019: 1}, latest.PerYear)
	assert.Equal(t, 2, latest.Stats.Rows)
	require.NotNil(t, latest.CompletedAt)

	got, err := s.LoadSnapshot(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, tbl.Columns(), got.Columns())
	require.Equal(t, tbl.Len(), got.Len())

	// Sentinels survive intact; so do concrete types.
	assert.Equal(t, "0192200001", got.Value(0, "ID").Text())
	code, ok := got.Value(0, "CODE").IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(724), code)
	b, ok := got.Value(0, "FLAG").BoolVal()
	require.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, table.KindMissing, got.Value(1, "ID").Kind())
	assert.Equal(t, table.KindNull, got.Value(1, "CODE").Kind())
	assert.Equal(t, table.KindUnparseable, got.Value(1, "FLAG").Kind())
	assert.Equal(t, "maybe", got.Value(1, "FLAG").Raw())
}

func TestSQLite_LatestRunSkipsFailedAndRunning(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	good, err := s.CreateRun(ctx, "/data", []int{2018})
	require.NoError(t, err)
	good.Rows = 1
	require.NoError(t, s.CompleteRun(ctx, good))

	bad, err := s.CreateRun(ctx, "/data", []int{2018})
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, bad.ID, eris.New("csv exploded")))

	_, err = s.CreateRun(ctx, "/data", []int{2018})
	require.NoError(t, err)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, good.ID, latest.ID)
}

func TestSQLite_LatestRunEmpty(t *testing.T) {
	s := openSQLite(t)
	latest, err := s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLite_LoadSnapshotUnknownRun(t *testing.T) {
	s := openSQLite(t)
	_, err := s.LoadSnapshot(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSQLite_LoadSnapshotRunWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	run, err := s.CreateRun(ctx, "/data", []int{2018})
	require.NoError(t, err)

	_, err = s.LoadSnapshot(ctx, run.ID)
	assert.Error(t, err)
}

func TestSQLite_CompleteRunNotFound(t *testing.T) {
	s := openSQLite(t)
	err := s.CompleteRun(context.Background(), &Run{ID: "ghost"})
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.Error(t, err)
}
