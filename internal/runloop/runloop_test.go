package runloop_test

import (
	"testing"
	"time"

	"codeberg.org/verne/gamepulse/internal/runloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoPreservesOrder(t *testing.T) {
	loop := runloop.New()
	defer loop.Stop()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		loop.Do(func() { got = append(got, i) })
	}

	loop.Sync(func() {})

	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSyncWaits(t *testing.T) {
	loop := runloop.New()
	defer loop.Stop()

	ran := false
	loop.Sync(func() { ran = true })
	assert.True(t, ran)
}

func TestAfterRunsWithLiveToken(t *testing.T) {
	loop := runloop.New()
	defer loop.Stop()

	var src runloop.TokenSource
	done := make(chan struct{})
	loop.After(5*time.Millisecond, src.Token(), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("continuation did not run")
	}
}

func TestAfterNoOpsWhenInvalidated(t *testing.T) {
	loop := runloop.New()
	defer loop.Stop()

	var src runloop.TokenSource
	fired := make(chan struct{}, 1)
	loop.After(5*time.Millisecond, src.Token(), func() { fired <- struct{}{} })

	src.Invalidate()

	select {
	case <-fired:
		t.Fatal("continuation ran after invalidation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDoAfterStopIsNoOp(t *testing.T) {
	loop := runloop.New()
	loop.Stop()

	// Must not block or panic.
	loop.Do(func() { t.Fatal("ran after stop") })
	loop.Sync(func() { t.Fatal("ran after stop") })
}

func TestTokenGenerations(t *testing.T) {
	var src runloop.TokenSource

	old := src.Token()
	assert.True(t, old.Live())

	src.Invalidate()
	assert.False(t, old.Live())

	fresh := src.Token()
	assert.True(t, fresh.Live())
}
