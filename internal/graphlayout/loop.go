package graphlayout

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Event is an input from the presentation layer.
type Event interface {
	apply(e *Engine, now time.Time) error
}

// HoverEnterEvent reports the pointer entering a node.
type HoverEnterEvent struct{ ID string }

// HoverLeaveEvent reports the pointer leaving a node.
type HoverLeaveEvent struct{ ID string }

// ClickEvent reports a primary click on a node.
type ClickEvent struct{ ID string }

func (ev HoverEnterEvent) apply(e *Engine, now time.Time) error { return e.HoverEnter(ev.ID, now) }
func (ev HoverLeaveEvent) apply(e *Engine, now time.Time) error { return e.HoverLeave(ev.ID, now) }
func (ev ClickEvent) apply(e *Engine, _ time.Time) error        { return e.Click(ev.ID) }

// Loop drives an Engine from a single goroutine. It holds a ticker only
// while the simulation or an animation is running.
type Loop struct {
	engine  *Engine
	events  chan Event
	onFrame func(*Engine)
	now     func() time.Time
	logger  *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameFunc sets the callback run after every tick, on the loop
// goroutine. It typically calls Engine.Render.
func WithFrameFunc(fn func(*Engine)) LoopOption {
	return func(l *Loop) { l.onFrame = fn }
}

// WithLoopLogger sets the logger for rejected events.
func WithLoopLogger(lg *slog.Logger) LoopOption {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithLoopClock replaces time.Now for event timestamps.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// NewLoop returns a loop for e. Once Run starts, e must only be touched
// through the loop.
func NewLoop(e *Engine, opts ...LoopOption) *Loop {
	l := &Loop{
		engine:  e,
		events:  make(chan Event, 16),
		onFrame: func(*Engine) {},
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Send queues ev for the loop goroutine. It blocks if the queue is full.
func (l *Loop) Send(ctx context.Context, ev Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events and ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	arm := func() {
		busy := l.engine.Active() || l.engine.Animating()
		switch {
		case busy && ticker == nil:
			ticker = time.NewTicker(l.engine.params.Step)
			tick = ticker.C
		case !busy && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	arm()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			if err := ev.apply(l.engine, l.now()); err != nil {
				l.logger.Warn("graph event rejected", "event", ev, "error", err)
			}
		case <-tick:
			if l.engine.Active() {
				l.engine.Step()
			}
			l.engine.Animate(l.now())
			l.onFrame(l.engine)
		}
		arm()
	}
}
