package faults

import (
	"sync"
	"time"

	"codeberg.org/verne/gamepulse/internal/errors"
	"codeberg.org/verne/gamepulse/internal/logger"
	"codeberg.org/verne/gamepulse/internal/notify"
	"codeberg.org/verne/gamepulse/internal/runloop"
	"github.com/google/uuid"
)

type pipeline struct {
	mu sync.Mutex

	loop   *runloop.Loop
	bus    notify.Bus
	repo   Repository
	tokens runloop.TokenSource

	debounce time.Duration

	queue      []*Record
	displaying *Record
	history    []*Record
	notice     *Notice

	counts Counts
}

// NewPipeline builds the error pipeline. The repository is optional;
// when cfg.DBPath is empty, resolved records are kept in memory only.
func NewPipeline(cfg Config, loop *runloop.Loop, bus notify.Bus) (Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var repo Repository
	if cfg.DBPath != "" {
		var err error
		repo, err = NewRepository(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &pipeline{
		loop:     loop,
		bus:      bus,
		repo:     repo,
		debounce: time.Duration(cfg.DebounceMs) * time.Millisecond,
	}, nil
}

func (p *pipeline) Report(kind Kind, context string) Record {
	return p.report(kind, context, SeverityFor(kind))
}

func (p *pipeline) ReportWithSeverity(kind Kind, context string, severity Severity) Record {
	return p.report(kind, context, severity)
}

func (p *pipeline) report(kind Kind, context string, severity Severity) Record {
	p.mu.Lock()

	record := &Record{
		ID:        uuid.New(),
		Kind:      kind,
		Severity:  severity,
		Context:   context,
		Timestamp: time.Now(),
	}

	p.counts.Total++

	if !severity.Blocking() {
		record.Status = StatusLogged
		p.notice = &Notice{
			Kind:      kind,
			Severity:  severity,
			Context:   context,
			Timestamp: record.Timestamp,
		}
		p.history = append(p.history, record)

		snapshot := *record
		p.mu.Unlock()

		logger.Info().
			Str("kind", string(kind)).
			Str("severity", string(severity)).
			Str("context", context).
			Msg("Transient fault notice")
		p.bus.Publish(notify.SourceFaults)

		return snapshot
	}

	p.counts.Blocking++
	if severity == SeverityCritical {
		p.counts.Critical++
	}
	if kind == KindCriticalSystemFault {
		p.counts.Fatal++
	}

	record.Status = StatusPending
	p.history = append(p.history, record)
	p.queue = append(p.queue, record)
	p.promoteLocked()

	snapshot := *record
	p.mu.Unlock()

	logger.Warn().
		Str("kind", string(kind)).
		Str("severity", string(severity)).
		Str("context", context).
		Msg("Fault queued for display")
	p.bus.Publish(notify.SourceFaults)

	return snapshot
}

// promoteLocked moves the head of the queue to the display slot when
// it is free. Callers hold p.mu.
func (p *pipeline) promoteLocked() {
	if p.displaying != nil || len(p.queue) == 0 {
		return
	}

	p.displaying = p.queue[0]
	p.queue = p.queue[1:]
	p.displaying.Status = StatusDisplaying
}

func (p *pipeline) Resolve(action RecoveryAction, recovered bool) error {
	errFactory := errors.New()

	p.mu.Lock()

	record := p.displaying
	if record == nil {
		p.mu.Unlock()
		return errFactory.New(ErrNothingDisplayed)
	}

	record.Status = StatusResolved
	record.ChosenAction = action
	record.Recovered = recovered
	p.displaying = nil

	snapshot := *record
	token := p.tokens.Token()
	p.mu.Unlock()

	if p.repo != nil {
		if err := p.repo.Store(&snapshot); err != nil {
			logger.Error().Err(err).Msg("Failed to persist resolved fault")
		}
	}

	logger.Info().
		Str("kind", string(snapshot.Kind)).
		Str("action", string(action)).
		Bool("recovered", recovered).
		Msg("Fault resolved")
	p.bus.Publish(notify.SourceFaults)

	// The next queued record surfaces after a short debounce so the
	// host UI can dismiss the previous presentation first.
	p.loop.After(p.debounce, token, func() {
		p.mu.Lock()
		p.promoteLocked()
		promoted := p.displaying != nil
		p.mu.Unlock()

		if promoted {
			p.bus.Publish(notify.SourceFaults)
		}
	})

	return nil
}

func (p *pipeline) Displaying() (Record, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.displaying == nil {
		return Record{}, false
	}

	return *p.displaying, true
}

func (p *pipeline) LatestNotice() (Notice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.notice == nil {
		return Notice{}, false
	}

	return *p.notice, true
}

func (p *pipeline) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

func (p *pipeline) History() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Record, len(p.history))
	for i, record := range p.history {
		out[i] = *record
	}

	return out
}

func (p *pipeline) Counts() Counts {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.counts
}

func (p *pipeline) Close() error {
	p.tokens.Invalidate()

	if p.repo != nil {
		return p.repo.Close()
	}

	return nil
}
