// Package timer drives a puzzle's countdown from a tick source.
//
// The engine never owns a clock. Countdown is the external driver that calls
// DecrementTimer once per tick while the puzzle is playing and stops on its
// own once the session leaves the playing status.
package timer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/picture-puzzle/game/engine"
)

// Target is the part of the engine the countdown needs
type Target interface {
	DecrementTimer()
	Snapshot() engine.Snapshot
}

// TickSource produces ticks until stopped
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// NewTickSource creates a tick source for the given interval
type NewTickSource func(interval time.Duration) TickSource

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop() { r.t.Stop() }

// RealTicker is the wall-clock tick source
func RealTicker(interval time.Duration) TickSource {
	return realTicker{t: time.NewTicker(interval)}
}

// StopReason explains why a countdown ended
type StopReason string

const (
	StoppedUntimed    StopReason = "untimed"
	StoppedExpired    StopReason = "expired"
	StoppedNotPlaying StopReason = "not_playing"
	StoppedSuperseded StopReason = "superseded"
	StoppedCancelled  StopReason = "cancelled"
)

// Option configures a Countdown
type Option func(*Countdown)

// WithInterval sets the tick interval
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) { c.interval = d }
}

// WithTickSource replaces the wall-clock ticker
func WithTickSource(f NewTickSource) Option {
	return func(c *Countdown) { c.newTicker = f }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Countdown) { c.log = log }
}

// WithTickHandler is called after every tick with the resulting snapshot
func WithTickHandler(f func(engine.Snapshot)) Option {
	return func(c *Countdown) { c.onTick = f }
}

// Countdown ticks a target once per interval
type Countdown struct {
	target    Target
	interval  time.Duration
	newTicker NewTickSource
	log       logrus.FieldLogger
	onTick    func(engine.Snapshot)
}

// New creates a countdown for target with a one second interval
func New(target Target, opts ...Option) *Countdown {
	c := &Countdown{
		target:    target,
		interval:  time.Second,
		newTicker: RealTicker,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run ticks the target until the puzzle is untimed, leaves the playing
// status, is replaced by another session, or ctx ends. It blocks.
func (c *Countdown) Run(ctx context.Context) StopReason {
	return c.run(ctx, c.target.Snapshot())
}

func (c *Countdown) run(ctx context.Context, start engine.Snapshot) StopReason {
	if reason, stop := c.shouldStop(start, start.Generation); stop {
		return reason
	}

	ticker := c.newTicker(c.interval)
	defer ticker.Stop()

	log := c.log.WithField("generation", start.Generation)
	log.Debug("Countdown started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Countdown cancelled")
			return StoppedCancelled

		case <-ticker.C():
			// the session may have changed between ticks
			if reason, stop := c.shouldStop(c.target.Snapshot(), start.Generation); stop {
				log.WithField("reason", reason).Debug("Countdown stopped")
				return reason
			}

			c.target.DecrementTimer()
			snap := c.target.Snapshot()
			if c.onTick != nil {
				c.onTick(snap)
			}
			if reason, stop := c.shouldStop(snap, start.Generation); stop {
				log.WithField("reason", reason).Debug("Countdown stopped")
				return reason
			}
		}
	}
}

// Start runs the countdown in a goroutine, bound to the session that is live
// when Start is called. The returned channel yields the stop reason and is
// then closed.
func (c *Countdown) Start(ctx context.Context) <-chan StopReason {
	start := c.target.Snapshot()
	done := make(chan StopReason, 1)
	go func() {
		defer close(done)
		done <- c.run(ctx, start)
	}()
	return done
}

func (c *Countdown) shouldStop(snap engine.Snapshot, generation uint64) (StopReason, bool) {
	switch {
	case snap.Generation != generation:
		return StoppedSuperseded, true
	case snap.Status != engine.StatusPlaying:
		return StoppedNotPlaying, true
	case snap.TimeLeft == nil:
		return StoppedUntimed, true
	case *snap.TimeLeft <= 0:
		return StoppedExpired, true
	}
	return "", false
}
