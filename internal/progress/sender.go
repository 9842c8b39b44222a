// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package progress

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing of throttled progress events.
const DefaultInterval = 120 * time.Millisecond

// =============================================================================
// SENDER
// =============================================================================

// Sender is the worker's write end of a progress channel. It throttles
// high-frequency progress, lets boundary events through immediately, and
// closes the channel after the single terminal event.
//
// All sends happen under one mutex, so events leave in the order the worker
// produced them even when a delayed flush fires from a timer goroutine.
type Sender struct {
	ctx      context.Context
	ch       chan<- Event
	interval time.Duration

	mu          sync.Mutex
	limiter     *rate.Limiter
	pending     *Progress
	timer       *time.Timer
	reservation *rate.Reservation
	gen         uint64
	closed      bool

	sent       int
	suppressed int
}

// NewSender wraps ch. Sends give up when ctx is done, so a host that stopped
// reading cannot wedge the worker. interval <= 0 disables throttling.
func NewSender(ctx context.Context, ch chan<- Event, interval time.Duration) *Sender {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Sender{
		ctx:      ctx,
		ch:       ch,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Throttled forwards p unless another throttled event went out less than one
// interval ago. A suppressed event is parked; later ones overwrite it, and a
// timer sends whatever is parked once the interval has elapsed.
func (s *Sender) Throttled(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.pending == nil && s.timer == nil && s.limiter.Allow() {
		s.send(p)
		return
	}

	if s.pending != nil {
		s.suppressed++
	}
	s.pending = &p
	if s.timer != nil {
		return
	}

	// The reservation holds the next token for the flush.
	s.reservation = s.limiter.Reserve()
	gen := s.gen
	s.timer = time.AfterFunc(s.reservation.Delay(), func() { s.flush(gen) })
}

// Boundary sends p now. A parked throttled event is dropped: p supersedes it.
func (s *Sender) Boundary(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.dropPending()
	s.send(p)
}

// Terminal sends ev and closes the channel. Only the first call has an
// effect; every send after it is a no-op.
func (s *Sender) Terminal(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.dropPending()
	s.send(ev)
	s.closed = true
	close(s.ch)
}

// Closed reports whether the terminal event has been sent.
func (s *Sender) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns how many events were sent and how many throttled events were
// overwritten before they could be sent.
func (s *Sender) Stats() (sent, suppressed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent, s.suppressed
}

// flush sends the parked event. gen guards against a timer that fired just
// as a boundary or a newer timer replaced it.
func (s *Sender) flush(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	s.reservation = nil
	s.gen++
	if s.pending == nil {
		return
	}
	p := *s.pending
	s.pending = nil
	s.send(p)
}

// dropPending discards the parked event and its timer. Must hold mu.
func (s *Sender) dropPending() {
	if s.pending != nil {
		s.suppressed++
		s.pending = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.reservation.Cancel()
		s.timer = nil
		s.reservation = nil
	}
	s.gen++
}

// send delivers ev. Buffer space wins over a done context, so queued events
// still reach a host that is draining after cancellation. Must hold mu.
func (s *Sender) send(ev Event) {
	select {
	case s.ch <- ev:
		s.sent++
		return
	default:
	}
	select {
	case s.ch <- ev:
		s.sent++
	case <-s.ctx.Done():
	}
}
