package notify_test

import (
	"testing"
	"time"

	"codeberg.org/verne/gamepulse/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := notify.New()
	defer bus.Close()

	sub, err := bus.Subscribe("coordinator")
	require.NoError(t, err)

	bus.Publish(notify.SourcePerformance)

	select {
	case <-sub.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a wake-up after publish")
	}

	pending := sub.Pending()
	assert.Equal(t, []notify.Source{notify.SourcePerformance}, pending)
	assert.Nil(t, sub.Pending(), "pending set should drain")
}

func TestDuplicateSubscriber(t *testing.T) {
	bus := notify.New()
	defer bus.Close()

	_, err := bus.Subscribe("coordinator")
	require.NoError(t, err)

	_, err = bus.Subscribe("coordinator")
	assert.Error(t, err)
}

func TestCoalescing(t *testing.T) {
	bus := notify.New()
	defer bus.Close()

	sub, err := bus.Subscribe("coordinator")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		bus.Publish(notify.SourceFaults)
	}
	bus.Publish(notify.SourceAnimation)

	pending := sub.Pending()
	assert.Len(t, pending, 2, "repeated signals from one source coalesce")
	assert.ElementsMatch(t, []notify.Source{notify.SourceFaults, notify.SourceAnimation}, pending)

	stats, err := bus.Stats("coordinator")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Sent)
	assert.Equal(t, uint64(4), stats.Coalesced)
}

func TestAtLeastOnceAfterDrain(t *testing.T) {
	bus := notify.New()
	defer bus.Close()

	sub, err := bus.Subscribe("coordinator")
	require.NoError(t, err)

	bus.Publish(notify.SourceHaptics)
	<-sub.Wake()
	require.NotNil(t, sub.Pending())

	// A change after the drain must produce a fresh wake-up.
	bus.Publish(notify.SourceHaptics)

	select {
	case <-sub.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a wake-up for the post-drain change")
	}
	assert.Equal(t, []notify.Source{notify.SourceHaptics}, sub.Pending())
}

func TestUnsubscribe(t *testing.T) {
	bus := notify.New()
	defer bus.Close()

	sub, err := bus.Subscribe("coordinator")
	require.NoError(t, err)
	require.NoError(t, bus.Unsubscribe("coordinator"))

	bus.Publish(notify.SourceAudio)
	assert.Nil(t, sub.Pending())

	assert.Error(t, bus.Unsubscribe("coordinator"))
}

func TestPublishAfterClose(t *testing.T) {
	bus := notify.New()

	sub, err := bus.Subscribe("coordinator")
	require.NoError(t, err)

	bus.Close()
	bus.Publish(notify.SourceSettings)

	assert.Nil(t, sub.Pending())

	_, err = bus.Subscribe("late")
	assert.Error(t, err)
}
