// Package notify carries payload-free change notifications from the
// subsystem leaves to the coordinator. A notification means "this
// subsystem changed"; subscribers are expected to re-derive the full
// configuration from current state, so a signal that is still pending
// may be coalesced with a newer one without loss.
package notify

import (
	"sync"
	"sync/atomic"

	"codeberg.org/verne/gamepulse/internal/errors"
)

// Source identifies the subsystem that emitted a notification.
type Source string

const (
	SourcePerformance Source = "performance"
	SourceFaults      Source = "faults"
	SourceAnimation   Source = "animation"
	SourceHaptics     Source = "haptics"
	SourceAudio       Source = "audio"
	SourceAnnounce    Source = "announce"
	SourceSettings    Source = "settings"
	SourceCloud       Source = "cloud"
)

// SubscriberStats counts deliveries and coalesced signals.
type SubscriberStats struct {
	Sent      uint64
	Coalesced uint64
}

// Subscription is one subscriber's view of the bus. Wake fires when at
// least one source has a pending change; Pending drains the pending
// set.
type Subscription struct {
	mu    sync.Mutex
	wake  chan struct{}
	dirty map[Source]struct{}
	stats SubscriberStats
}

// Wake returns the channel that fires when changes are pending.
func (s *Subscription) Wake() <-chan struct{} {
	return s.wake
}

// Pending returns and clears the set of sources with pending changes.
func (s *Subscription) Pending() []Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return nil
	}

	pending := make([]Source, 0, len(s.dirty))
	for src := range s.dirty {
		pending = append(pending, src)
	}
	s.dirty = make(map[Source]struct{})

	return pending
}

func (s *Subscription) signal(src Source) {
	s.mu.Lock()
	if _, exists := s.dirty[src]; exists {
		atomic.AddUint64(&s.stats.Coalesced, 1)
	} else {
		s.dirty[src] = struct{}{}
		atomic.AddUint64(&s.stats.Sent, 1)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
		// A wake-up is already pending; the new source is
		// visible through the dirty set.
	}
}

type bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	closed      bool
}

// Bus distributes change notifications to subscribers.
type Bus interface {
	Subscribe(id string) (*Subscription, error)
	Unsubscribe(id string) error
	Publish(src Source)
	Stats(id string) (*SubscriberStats, error)
	Close()
}

// New creates an empty notification bus.
func New() Bus {
	return &bus{
		subscribers: make(map[string]*Subscription),
	}
}

func (b *bus) Subscribe(id string) (*Subscription, error) {
	errFactory := errors.New()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errFactory.New(ErrBusClosed)
	}

	if _, exists := b.subscribers[id]; exists {
		return nil, errFactory.WithData(ErrSubscriberExists, id)
	}

	sub := &Subscription{
		wake:  make(chan struct{}, 1),
		dirty: make(map[Source]struct{}),
	}
	b.subscribers[id] = sub

	return sub, nil
}

func (b *bus) Unsubscribe(id string) error {
	errFactory := errors.New()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return errFactory.WithData(ErrSubscriberNotFound, id)
	}

	delete(b.subscribers, id)

	return nil
}

func (b *bus) Publish(src Source) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		sub.signal(src)
	}
}

func (b *bus) Stats(id string) (*SubscriberStats, error) {
	errFactory := errors.New()

	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, exists := b.subscribers[id]
	if !exists {
		return nil, errFactory.WithData(ErrSubscriberNotFound, id)
	}

	return &SubscriberStats{
		Sent:      atomic.LoadUint64(&sub.stats.Sent),
		Coalesced: atomic.LoadUint64(&sub.stats.Coalesced),
	}, nil
}

func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	b.subscribers = nil
}
