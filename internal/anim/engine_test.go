package anim_test

import (
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"codeberg.org/verne/gamepulse/internal/anim"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/perf"
	"codeberg.org/verne/gamepulse/internal/runloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, true)
	os.Exit(m.Run())
}

func newEngine(t *testing.T, cfg anim.Config) anim.Engine {
	t.Helper()

	loop := runloop.New()
	t.Cleanup(loop.Stop)

	bus := notify.New()
	t.Cleanup(bus.Close)

	engine, err := anim.NewEngine(cfg, loop, bus)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return engine
}

func TestSlowGestureUsesDefaultSpring(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	// Combined velocity 20 + 0.7*40 = 48, below the threshold of 50.
	plan := engine.Plan(anim.Request{
		Kind:          anim.KindCardPlay,
		Distance:      100,
		StartVelocity: 20,
		DragVelocity:  40,
	})

	assert.InDelta(t, 1.0, plan.Spring.Mass, 1e-9)
	assert.InDelta(t, 180.0, plan.Spring.Stiffness, 1e-9)
	assert.InDelta(t, 22.0, plan.Spring.Damping, 1e-9)
	assert.False(t, plan.Linear)
	assert.False(t, plan.Settling)
}

func TestFastGestureScalesSpring(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	magnitudes := []float64{100, 200, 300, 400}
	var lastStiffness, lastDamping float64

	for i, magnitude := range magnitudes {
		plan := engine.Plan(anim.Request{
			Kind:          anim.KindCardPlay,
			Distance:      100,
			StartVelocity: magnitude,
		})

		assert.GreaterOrEqual(t, plan.Spring.Stiffness, 90.0)
		assert.LessOrEqual(t, plan.Spring.Stiffness, 190.0)
		assert.GreaterOrEqual(t, plan.Spring.Damping, 20.0)
		assert.LessOrEqual(t, plan.Spring.Damping, 40.0)

		if i > 0 {
			assert.Less(t, plan.Spring.Stiffness, lastStiffness,
				"stiffness must strictly decrease with magnitude")
			assert.Greater(t, plan.Spring.Damping, lastDamping,
				"damping must strictly increase with magnitude")
		}
		lastStiffness = plan.Spring.Stiffness
		lastDamping = plan.Spring.Damping
	}
}

func TestFastFlickCapsMomentumFactor(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	// At magnitude 600 the momentum factor is capped at 2.0, so the
	// spring matches any higher magnitude exactly.
	at600 := engine.Plan(anim.Request{Kind: anim.KindCardPlay, Distance: 100, StartVelocity: 600})
	at900 := engine.Plan(anim.Request{Kind: anim.KindCardPlay, Distance: 100, StartVelocity: 900})

	assert.Equal(t, at600.Spring, at900.Spring)
	assert.GreaterOrEqual(t, at600.Spring.Stiffness, 90.0)
	assert.LessOrEqual(t, at600.Spring.Stiffness, 190.0)
	assert.True(t, at600.Settling, "residual energy above 0.1 must schedule settling")
}

func TestDurationModel(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	tests := []struct {
		name     string
		distance float64
		velocity float64
		want     time.Duration
	}{
		{"mid distance", 100, 0, 500 * time.Millisecond},
		{"short clamps to minimum", 10, 0, 250 * time.Millisecond},
		{"long clamps to maximum", 400, 0, time.Second},
		{"velocity adds time", 100, 500, 700 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := engine.Plan(anim.Request{
				Kind:          anim.KindCardDeal,
				Distance:      tt.distance,
				StartVelocity: tt.velocity,
			})
			assert.InDelta(t, float64(tt.want), float64(plan.Duration), float64(time.Millisecond))
		})
	}
}

func TestReduceMotionOverridesTier(t *testing.T) {
	for _, tier := range []perf.Tier{perf.TierHigh, perf.TierMedium, perf.TierLow} {
		engine := newEngine(t, anim.DefaultConfig())
		engine.SetQualityTier(tier)
		engine.SetReduceMotion(true)

		// Base duration for distance 100 at rest is 0.5 s.
		plan := engine.Plan(anim.Request{Kind: anim.KindCardPlay, Distance: 100})

		assert.InDelta(t, float64(50*time.Millisecond), float64(plan.Duration),
			float64(time.Millisecond), "tier %s", tier)
		assert.True(t, plan.Linear)
	}
}

func TestMediumTierAdaptation(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())
	engine.SetQualityTier(perf.TierMedium)

	plan := engine.Plan(anim.Request{Kind: anim.KindCardPlay, Distance: 100})
	assert.InDelta(t, float64(400*time.Millisecond), float64(plan.Duration), float64(time.Millisecond))

	// Heavy presets collapse to the single lighter generic preset.
	heavy := engine.Plan(anim.Request{Kind: anim.KindShuffle, Distance: 100})
	victory := engine.Plan(anim.Request{Kind: anim.KindVictory, Distance: 100})
	assert.Equal(t, heavy.Spring, victory.Spring)
	assert.False(t, heavy.Linear)
}

func TestLowTierCollapsesToLinear(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())
	engine.SetQualityTier(perf.TierLow)

	plan := engine.Plan(anim.Request{Kind: anim.KindShuffle, Distance: 300, StartVelocity: 400})

	assert.True(t, plan.Linear)
	assert.Equal(t, 200*time.Millisecond, plan.Duration)
	assert.Zero(t, plan.Spring, "physics is bypassed entirely")
	assert.False(t, plan.Settling)
}

func TestMomentumDecayPerCompletion(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())
	// Reduced motion keeps transitions short without touching the
	// momentum bookkeeping.
	engine.SetReduceMotion(true)

	engine.Animate(anim.Request{Kind: anim.KindCardPlay, Distance: 10, StartVelocity: 600})

	m, ok := engine.Momentum(anim.KindCardPlay)
	require.True(t, ok)
	assert.InDelta(t, 0.6, m.Energy, 1e-9, "gesture injects magnitude/norm energy")

	const n = 3
	for i := 0; i < n; i++ {
		done := make(chan struct{})
		engine.Animate(anim.Request{
			Kind:       anim.KindCardPlay,
			Distance:   10,
			Completion: func() { close(done) },
		})
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("animation did not complete")
		}
	}

	// The fast animation itself also completed once before the N
	// slow ones.
	m, ok = engine.Momentum(anim.KindCardPlay)
	require.True(t, ok)
	want := 0.6 * math.Pow(0.85, n+1)
	assert.InDelta(t, want, m.Energy, 1e-6, "energy decays by 0.85 per completion")
}

func TestMomentumRemovedOnceNegligible(t *testing.T) {
	cfg := anim.DefaultConfig()
	cfg.MomentumDecay = 0.1
	engine := newEngine(t, cfg)
	engine.SetReduceMotion(true)

	engine.Animate(anim.Request{Kind: anim.KindCardPlay, Distance: 10, StartVelocity: 600})

	// 0.6 -> 0.06 -> 0.006: removed at the second completion.
	for i := 0; i < 2; i++ {
		done := make(chan struct{})
		engine.Animate(anim.Request{Kind: anim.KindCardPlay, Distance: 10, Completion: func() { close(done) }})
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("animation did not complete")
		}
	}

	require.Eventually(t, func() bool {
		_, ok := engine.Momentum(anim.KindCardPlay)
		return !ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopAllDiscardsPendingWork(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	var mu sync.Mutex
	completed := false

	plan := engine.Animate(anim.Request{
		Kind:          anim.KindCardPlay,
		Distance:      100,
		StartVelocity: 600,
		Completion: func() {
			mu.Lock()
			completed = true
			mu.Unlock()
		},
	})
	engine.Animate(anim.Request{Kind: anim.KindCardDeal, Distance: 100})

	require.True(t, engine.IsAnimating())

	engine.StopAll()

	assert.False(t, engine.IsAnimating())
	assert.Zero(t, engine.QueuedCount())
	_, ok := engine.Momentum(anim.KindCardPlay)
	assert.False(t, ok, "momentum cleared")

	// Wait past the primary phase and settling; the discarded
	// continuation must not fire the callback.
	time.Sleep(plan.Duration + 300*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, completed, "completion callback fired after StopAll")
}

func TestQueueDrainsByPriority(t *testing.T) {
	engine := newEngine(t, anim.DefaultConfig())

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	// The first task starts immediately; the rest queue behind it
	// and drain by priority, ties in insertion order.
	engine.Enqueue(anim.Task{Kind: anim.KindCardDeal, Priority: anim.PriorityNormal, Run: record("first")})
	engine.Enqueue(anim.Task{Kind: anim.KindCardDeal, Priority: anim.PriorityLow, Run: record("low")})
	engine.Enqueue(anim.Task{Kind: anim.KindCardDeal, Priority: anim.PriorityCritical, Run: record("critical-1")})
	engine.Enqueue(anim.Task{Kind: anim.KindCardDeal, Priority: anim.PriorityNormal, Run: record("normal")})
	engine.Enqueue(anim.Task{Kind: anim.KindCardDeal, Priority: anim.PriorityCritical, Run: record("critical-2")})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "critical-1", "critical-2", "normal", "low"}, order)
}

func TestInvalidConfig(t *testing.T) {
	loop := runloop.New()
	t.Cleanup(loop.Stop)
	bus := notify.New()
	t.Cleanup(bus.Close)

	cfg := anim.DefaultConfig()
	cfg.MomentumDecay = 1.5
	_, err := anim.NewEngine(cfg, loop, bus)
	assert.Error(t, err)

	cfg = anim.DefaultConfig()
	cfg.VelocityNorm = 0
	_, err = anim.NewEngine(cfg, loop, bus)
	assert.Error(t, err)
}
