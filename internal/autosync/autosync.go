// Package autosync runs one periodic job per data source.
package autosync

import (
	"context"
	"sync"
	"time"
)

const DefaultInterval = 30 * time.Second

// Syncer calls tick every interval until stopped. At most one timer
// goroutine exists per Syncer; Start replaces a running one.
type Syncer struct {
	interval time.Duration
	tick     func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, tick func(ctx context.Context)) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{interval: interval, tick: tick}
}

func (s *Syncer) Interval() time.Duration { return s.interval }

// Start begins ticking, first after one full interval. A running timer is
// stopped and waited for before the new one starts, so two never overlap.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.loop(ctx, done)
}

func (s *Syncer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// Stop cancels the timer and waits for an in-flight tick to return. Safe to
// call when not running.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Syncer) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Syncer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
