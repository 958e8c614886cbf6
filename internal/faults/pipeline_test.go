package faults_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/verne/gamepulse/internal/faults"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/runloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	os.Exit(m.Run())
}

func newPipeline(t *testing.T, cfg faults.Config) faults.Pipeline {
	t.Helper()

	loop := runloop.New()
	t.Cleanup(loop.Stop)

	bus := notify.New()
	t.Cleanup(bus.Close)

	p, err := faults.NewPipeline(cfg, loop, bus)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	return p
}

func TestSeverityTable(t *testing.T) {
	tests := map[faults.Kind]faults.Severity{
		faults.KindInvalidMove:          faults.SeverityInfo,
		faults.KindGameStateCorruption:  faults.SeverityError,
		faults.KindAIFailure:            faults.SeverityError,
		faults.KindSaveCorruption:       faults.SeverityError,
		faults.KindPerformanceWarning:   faults.SeverityWarning,
		faults.KindConnectivityLost:     faults.SeverityWarning,
		faults.KindLowMemory:            faults.SeverityError,
		faults.KindAccessibilityFailure: faults.SeverityCritical,
		faults.KindAudioFailure:         faults.SeverityWarning,
		faults.KindAnimationFailure:     faults.SeverityWarning,
		faults.KindCriticalSystemFault:  faults.SeverityCritical,
	}

	require.Len(t, tests, len(faults.Kinds()), "severity table test must cover the whole taxonomy")

	for kind, want := range tests {
		assert.Equal(t, want, faults.SeverityFor(kind), "kind %s", kind)
	}
}

func TestInfoBypassesQueue(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	record := p.Report(faults.KindInvalidMove, "seven of clubs on empty table")

	assert.Equal(t, faults.SeverityInfo, record.Severity)
	assert.Equal(t, faults.StatusLogged, record.Status)
	assert.Zero(t, p.QueueLength())

	_, displaying := p.Displaying()
	assert.False(t, displaying)

	notice, ok := p.LatestNotice()
	require.True(t, ok)
	assert.Equal(t, faults.KindInvalidMove, notice.Kind)

	history := p.History()
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestBlockingRecordDisplaysImmediately(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	record := p.Report(faults.KindGameStateCorruption, "trick count mismatch")

	displayed, ok := p.Displaying()
	require.True(t, ok)
	assert.Equal(t, record.ID, displayed.ID)
	assert.Equal(t, faults.StatusDisplaying, displayed.Status)
	assert.Zero(t, p.QueueLength())
}

func TestSingleDisplayingInvariant(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	for i := 0; i < 5; i++ {
		p.Report(faults.KindSaveCorruption, fmt.Sprintf("attempt %d", i))

		displaying := 0
		for _, record := range p.History() {
			if record.Status == faults.StatusDisplaying {
				displaying++
			}
		}
		assert.Equal(t, 1, displaying, "after report %d", i)
	}

	assert.Equal(t, 4, p.QueueLength())
}

func TestDisplayedRecordNeverSilentlyReplaced(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	first := p.Report(faults.KindAIFailure, "opponent move timed out")
	p.Report(faults.KindCriticalSystemFault, "render device lost")

	displayed, ok := p.Displaying()
	require.True(t, ok)
	assert.Equal(t, first.ID, displayed.ID, "a later report must not displace the displayed record")
}

func TestResolveThenDebouncedPromotion(t *testing.T) {
	cfg := faults.DefaultConfig()
	cfg.DebounceMs = 10
	p := newPipeline(t, cfg)

	first := p.Report(faults.KindGameStateCorruption, "first")
	second := p.Report(faults.KindSaveCorruption, "second")

	require.NoError(t, p.Resolve(faults.ActionRestartGame, true))

	// Immediately after resolution nothing is displaying.
	_, ok := p.Displaying()
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		displayed, ok := p.Displaying()
		return ok && displayed.ID == second.ID
	}, time.Second, 2*time.Millisecond, "next record should surface after the debounce")

	history := p.History()
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, faults.StatusResolved, history[0].Status)
	assert.True(t, history[0].Recovered)
	assert.Equal(t, faults.ActionRestartGame, history[0].ChosenAction)
}

func TestResolveWithoutDisplayedRecord(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	err := p.Resolve(faults.ActionDismiss, false)
	assert.Error(t, err)
}

func TestRecoveryActions(t *testing.T) {
	tests := []struct {
		kind faults.Kind
		want []faults.RecoveryAction
	}{
		{faults.KindGameStateCorruption, []faults.RecoveryAction{faults.ActionRestartGame, faults.ActionReturnToMenu}},
		{faults.KindSaveCorruption, []faults.RecoveryAction{faults.ActionClearSaveData, faults.ActionReturnToMenu}},
		{faults.KindPerformanceWarning, []faults.RecoveryAction{faults.ActionReduceEffects, faults.ActionCloseApp}},
		{faults.KindCriticalSystemFault, []faults.RecoveryAction{faults.ActionCloseApp}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, faults.RecoveryActions(tt.kind), "kind %s", tt.kind)
	}

	for _, kind := range faults.Kinds() {
		assert.NotEmpty(t, faults.RecoveryActions(kind), "every kind offers at least one action")
	}
}

func TestSeverityOverride(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	record := p.ReportWithSeverity(faults.KindInvalidMove, "tutorial hint", faults.SeverityError)

	assert.Equal(t, faults.SeverityError, record.Severity)
	displayed, ok := p.Displaying()
	require.True(t, ok)
	assert.Equal(t, record.ID, displayed.ID)
}

func TestCounts(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	p.Report(faults.KindInvalidMove, "info")
	p.Report(faults.KindLowMemory, "error")
	p.Report(faults.KindCriticalSystemFault, "critical")

	counts := p.Counts()
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.Blocking)
	assert.Equal(t, 1, counts.Critical)
	assert.Equal(t, 1, counts.Fatal)
}

func TestFatalCountsOnlyCriticalSystemFaults(t *testing.T) {
	p := newPipeline(t, faults.DefaultConfig())

	p.Report(faults.KindAccessibilityFailure, "speech service gone")

	counts := p.Counts()
	assert.Equal(t, 1, counts.Critical)
	assert.Zero(t, counts.Fatal, "a critical record of another kind is not session-fatal")

	p.Report(faults.KindCriticalSystemFault, "render device lost")
	assert.Equal(t, 1, p.Counts().Fatal)
}

func TestRepositoryPersistsResolvedRecords(t *testing.T) {
	cfg := faults.DefaultConfig()
	cfg.DebounceMs = 1
	cfg.DBPath = filepath.Join(t.TempDir(), "faults.db")

	p := newPipeline(t, cfg)

	p.Report(faults.KindSaveCorruption, "checksum mismatch")
	require.NoError(t, p.Resolve(faults.ActionClearSaveData, true))
	require.NoError(t, p.Close())

	_, err := os.Stat(cfg.DBPath)
	assert.NoError(t, err, "database file should exist")
}
