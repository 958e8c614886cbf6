// Package runloop provides the single execution context that owns all
// subsystem state. Work is marshalled onto one goroutine; timed
// continuations carry a cancellation token that is checked again at
// resumption, so a stop that races a firing timer still wins.
package runloop

import (
	"sync"
	"sync/atomic"
	"time"
)

const taskBacklog = 256

// Loop is a serialized executor. All functions passed to Do, Sync and
// After run on the same goroutine, in submission order for Do/Sync and
// at timer order for After.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	stopOnce sync.Once
}

// New starts a loop and returns it.
func New() *Loop {
	l := &Loop{
		tasks: make(chan func(), taskBacklog),
		quit:  make(chan struct{}),
	}
	go l.run()

	return l
}

func (l *Loop) run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Do marshals fn onto the loop. After Stop it is a no-op.
func (l *Loop) Do(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Sync runs fn on the loop and waits for it to finish. Used for
// read-only state accessors and in tests.
func (l *Loop) Sync(fn func()) {
	done := make(chan struct{})
	l.Do(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-l.quit:
	}
}

// After schedules fn on the loop once d has elapsed, provided the
// token is still live at resumption. The returned timer may be used
// to fire early in tests.
func (l *Loop) After(d time.Duration, token Token, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		l.Do(func() {
			if token.Live() {
				fn()
			}
		})
	})
}

// Stop shuts the loop down. Queued and pending work is discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
}

// TokenSource issues cancellation tokens. Invalidate revokes every
// token issued so far; continuations holding a revoked token no-op.
type TokenSource struct {
	generation atomic.Uint64
}

// Token is a liveness check for one generation of scheduled work.
type Token struct {
	source *TokenSource
	gen    uint64
}

// Token issues a token for the current generation.
func (s *TokenSource) Token() Token {
	return Token{source: s, gen: s.generation.Load()}
}

// Invalidate revokes all outstanding tokens.
func (s *TokenSource) Invalidate() {
	s.generation.Add(1)
}

// Live reports whether the token's generation is still current.
func (t Token) Live() bool {
	return t.source != nil && t.source.generation.Load() == t.gen
}
