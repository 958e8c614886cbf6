package metrics_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) metrics.Config {
	t.Helper()

	cfg := metrics.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = filepath.Join(t.TempDir(), "telemetry.db")
	// Flush on every record so tests can read back immediately
	cfg.BatchSize = 1

	return cfg
}

func snapshotAt(ts time.Time) *metrics.Snapshot {
	return &metrics.Snapshot{
		Timestamp:  ts,
		Frames:     metrics.FrameMetrics{Rate: 58.5, Tier: "high"},
		Animations: metrics.AnimationMetrics{Active: 1, Queued: 2},
		Session:    metrics.SessionMetrics{TurnsStarted: 4, CardsPlayed: 12, GamesCompleted: 1},
		Faults:     metrics.FaultMetrics{Total: 3, Blocking: 1},
	}
}

func TestDisabledServiceIsNoop(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "telemetry.db")

	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), snapshotAt(time.Now())))
	require.NoError(t, svc.Close())

	_, err = os.Stat(cfg.DBPath)
	assert.True(t, os.IsNotExist(err), "disabled telemetry must not touch disk")
}

func TestRecordPersistsSnapshot(t *testing.T) {
	cfg := testConfig(t)

	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)

	ts := time.Now()
	require.NoError(t, svc.Record(context.Background(), snapshotAt(ts)))
	require.NoError(t, svc.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		rate                         float64
		tier                         string
		cardsPlayed, total, blocking int
	)
	err = db.QueryRow(`
        SELECT frame_rate, quality_tier, cards_played, faults_total, faults_blocking
        FROM session_metrics WHERE timestamp = ?
    `, ts.UnixMilli()).Scan(&rate, &tier, &cardsPlayed, &total, &blocking)
	require.NoError(t, err)

	assert.InDelta(t, 58.5, rate, 1e-9)
	assert.Equal(t, "high", tier)
	assert.Equal(t, 12, cardsPlayed)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, blocking)
}

func TestBatchedRecordsFlushOnClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100
	cfg.BatchTimeout = 60

	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(context.Background(), snapshotAt(base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, svc.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM session_metrics").Scan(&count))
	assert.Equal(t, 5, count)
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testConfig(t)

	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, svc.Record(context.Background(), snapshotAt(time.Now())))
	require.NoError(t, svc.Close())

	// Same schema version: reopening must succeed without rewriting
	svc, err = metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}

func TestRecordRejectsNilAndCancelled(t *testing.T) {
	cfg := testConfig(t)

	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)
	defer svc.Close()

	assert.Error(t, svc.Record(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.Record(ctx, snapshotAt(time.Now())))
}

func TestConfigValidation(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = ""
	_, err := metrics.NewService(cfg, logger.Default())
	assert.Error(t, err)

	cfg = metrics.DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = "x.db"
	cfg.BatchSize = -1
	_, err = metrics.NewService(cfg, logger.Default())
	assert.Error(t, err)
}
