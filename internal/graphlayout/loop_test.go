package graphlayout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastParams() Params {
	p := DefaultParams()
	p.Step = time.Millisecond
	p.MinSteps = 5
	p.ScaleDuration = 10 * time.Millisecond
	p.PopupDuration = 10 * time.Millisecond
	return p
}

func TestLoopIdlesAtRestAndWakesOnHover(t *testing.T) {
	e := Build([]Input{{ID: "solo"}}, fastParams())
	var frames atomic.Int64
	selected := make(chan string, 1)
	e.OnSelect(func(id string) { selected <- id })

	l := NewLoop(e, WithFrameFunc(func(*Engine) { frames.Add(1) }))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return frames.Load() == 5 }, 2*time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(5), frames.Load(), "loop must not tick at rest")

	require.NoError(t, l.Send(ctx, HoverEnterEvent{ID: "solo"}))
	require.Eventually(t, func() bool { return frames.Load() > 5 }, 2*time.Second, time.Millisecond)

	require.NoError(t, l.Send(ctx, ClickEvent{ID: "solo"}))
	select {
	case id := <-selected:
		assert.Equal(t, "solo", id)
	case <-time.After(2 * time.Second):
		t.Fatal("click was not delivered")
	}

	require.NoError(t, l.Send(ctx, HoverLeaveEvent{ID: "ghost"}))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
