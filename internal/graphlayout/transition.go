package graphlayout

import (
	"math"
	"time"
)

// outExpo eases p in [0,1] with a fast start and long tail.
func outExpo(p float64) float64 {
	if p >= 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*p)
}

// transition interpolates a value toward a target over a fixed duration.
// Retargeting mid-flight starts from the current value, so leaving a node
// halfway through its hover animation reverses from where it is.
type transition struct {
	from, to, value float64
	start           time.Time
	dur             time.Duration
}

func newTransition(v float64, dur time.Duration) transition {
	return transition{from: v, to: v, value: v, dur: dur}
}

func (t *transition) retarget(to float64, now time.Time) {
	t.from, t.to, t.start = t.value, to, now
}

func (t *transition) running() bool { return t.value != t.to }

// advance moves the value to its position at now and reports whether the
// transition is still running.
func (t *transition) advance(now time.Time) bool {
	if !t.running() {
		return false
	}
	if t.dur <= 0 {
		t.value = t.to
		return false
	}
	p := float64(now.Sub(t.start)) / float64(t.dur)
	if p < 0 {
		p = 0
	}
	if p >= 1 {
		t.value = t.to
		return false
	}
	t.value = t.from + (t.to-t.from)*outExpo(p)
	return true
}
