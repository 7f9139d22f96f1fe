package graphlayout

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/errs"
)

// ErrUnknownNode is returned for interaction with an id not in the graph.
var ErrUnknownNode = fmt.Errorf("%w: graph node", errs.ErrNotFound)

// Input is one commit as the layout sees it.
type Input struct {
	ID          string
	Parent      string
	Label       string // short id drawn next to the node
	Message     string
	DisplayTime string
	Preview     string // thumbnail path, empty when none
}

// FromCommits converts commits to layout inputs. previewPath maps a commit
// to its thumbnail location and may be nil.
func FromCommits(commits []commitstore.Commit, previewPath func(commitstore.Commit) string) []Input {
	out := make([]Input, 0, len(commits))
	for _, c := range commits {
		in := Input{
			ID:          c.ID,
			Parent:      c.Parent,
			Label:       c.ShortID(),
			Message:     c.Message,
			DisplayTime: c.DisplayTime,
		}
		if previewPath != nil {
			in.Preview = previewPath(c)
		}
		out = append(out, in)
	}
	return out
}

type node struct {
	Input
	lane    int
	pos     r2.Vec
	vel     r2.Vec
	hovered bool
	scale   transition
	popup   transition
}

type edge struct {
	child, parent *node
}

// Engine holds node positions and velocities and advances them one tick at
// a time. It is not safe for concurrent use.
type Engine struct {
	params    Params
	nodes     []*node
	byID      map[string]*node
	edges     []edge
	stepsLeft int
	running   bool
	onSelect  func(id string)
}

// Build places inputs on a circle in order and links each one to its parent.
// Parents that are not among inputs produce no edge. Duplicate ids keep the
// first occurrence. The returned engine is running for MinSteps ticks.
func Build(inputs []Input, p Params) *Engine {
	e := &Engine{
		params: p,
		byID:   make(map[string]*node, len(inputs)),
	}
	for _, in := range inputs {
		if _, dup := e.byID[in.ID]; dup {
			continue
		}
		n := &node{
			Input: in,
			lane:  len(e.nodes),
			scale: newTransition(1, p.ScaleDuration),
			popup: newTransition(0, p.PopupDuration),
		}
		e.nodes = append(e.nodes, n)
		e.byID[in.ID] = n
	}
	for i, n := range e.nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(e.nodes))
		n.pos = r2.Vec{X: math.Cos(angle) * p.InitialRadius, Y: math.Sin(angle) * p.InitialRadius}
	}
	for _, n := range e.nodes {
		if n.Parent == "" || n.Parent == n.ID {
			continue
		}
		if parent, ok := e.byID[n.Parent]; ok {
			e.edges = append(e.edges, edge{child: n, parent: parent})
		}
	}
	e.Resume(p.MinSteps)
	return e
}

// Params returns the engine's constants.
func (e *Engine) Params() Params { return e.params }

// Len returns the number of nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// EdgeCount returns the number of edges.
func (e *Engine) EdgeCount() int { return len(e.edges) }

// Position returns the position of node id.
func (e *Engine) Position(id string) (r2.Vec, bool) {
	n, ok := e.byID[id]
	if !ok {
		return r2.Vec{}, false
	}
	return n.pos, true
}

// Active reports whether the simulation still wants ticks.
func (e *Engine) Active() bool { return e.running }

// Resume keeps the simulation running for at least forceSteps more ticks.
func (e *Engine) Resume(forceSteps int) {
	if forceSteps > e.stepsLeft {
		e.stepsLeft = forceSteps
	}
	e.running = true
}

// Step advances the simulation one tick and returns the largest absolute
// velocity component. The engine comes to rest once the minimum run is
// spent and that speed is below SpeedEps.
func (e *Engine) Step() float64 {
	p := e.params

	for i, a := range e.nodes {
		for _, b := range e.nodes[i+1:] {
			d := r2.Sub(a.pos, b.pos)
			dist2 := math.Max(r2.Norm2(d), p.MinDist2)
			f := r2.Scale(p.ChargeK/dist2/math.Sqrt(dist2), d)
			a.vel = r2.Add(a.vel, f)
			b.vel = r2.Sub(b.vel, f)
		}
	}

	minDist := math.Sqrt(p.MinDist2)
	for _, ed := range e.edges {
		d := r2.Sub(ed.child.pos, ed.parent.pos)
		dist := math.Max(r2.Norm(d), minDist)
		f := r2.Scale(p.SpringK*(dist-p.SpringLen)/dist, d)
		ed.child.vel = r2.Sub(ed.child.vel, f)
		ed.parent.vel = r2.Add(ed.parent.vel, f)
	}

	var maxSpeed float64
	for _, n := range e.nodes {
		n.vel = r2.Scale(p.Damping, n.vel)
		n.pos = r2.Add(n.pos, n.vel)
		maxSpeed = math.Max(maxSpeed, math.Max(math.Abs(n.vel.X), math.Abs(n.vel.Y)))
	}

	e.stepsLeft--
	if e.stepsLeft <= 0 && maxSpeed < p.SpeedEps {
		e.stepsLeft = 0
		e.running = false
	}
	return maxSpeed
}

// Run steps while the engine is active, up to maxTicks, and returns the
// number of ticks taken.
func (e *Engine) Run(maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && e.running {
		e.Step()
		ticks++
	}
	return ticks
}

// OnSelect registers the callback that receives clicked commit ids.
func (e *Engine) OnSelect(fn func(id string)) { e.onSelect = fn }

// HoverEnter grows node id, opens its popup and re-energizes the
// simulation for another MinSteps ticks.
func (e *Engine) HoverEnter(id string, now time.Time) error {
	n, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownNode, id)
	}
	n.hovered = true
	n.scale.retarget(e.params.HoverScale, now)
	n.popup.retarget(1, now)
	e.Resume(e.params.MinSteps)
	return nil
}

// HoverLeave shrinks node id and closes its popup.
func (e *Engine) HoverLeave(id string, now time.Time) error {
	n, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownNode, id)
	}
	n.hovered = false
	n.scale.retarget(1, now)
	n.popup.retarget(0, now)
	return nil
}

// Click reports id to the OnSelect callback. The engine does nothing else
// with a selection.
func (e *Engine) Click(id string) error {
	if _, ok := e.byID[id]; !ok {
		return fmt.Errorf("%w %s", ErrUnknownNode, id)
	}
	if e.onSelect != nil {
		e.onSelect(id)
	}
	return nil
}

// Animate advances hover and popup transitions to now and reports whether
// any is still running.
func (e *Engine) Animate(now time.Time) bool {
	busy := false
	for _, n := range e.nodes {
		if n.scale.advance(now) {
			busy = true
		}
		if n.popup.advance(now) {
			busy = true
		}
	}
	return busy
}

// Animating reports whether any transition has not reached its target.
func (e *Engine) Animating() bool {
	for _, n := range e.nodes {
		if n.scale.running() || n.popup.running() {
			return true
		}
	}
	return false
}

// NodeAt returns the topmost node whose pick circle contains pt.
func (e *Engine) NodeAt(pt r2.Vec) (string, bool) {
	for i := len(e.nodes) - 1; i >= 0; i-- {
		n := e.nodes[i]
		r := e.params.NodeRadius*n.scale.value + e.params.HitMargin
		if r2.Norm2(r2.Sub(pt, n.pos)) <= r*r {
			return n.ID, true
		}
	}
	return "", false
}

// Bounds returns the corners of the box enclosing every node.
func (e *Engine) Bounds() (lo, hi r2.Vec) {
	for i, n := range e.nodes {
		if i == 0 {
			lo, hi = n.pos, n.pos
			continue
		}
		lo = r2.Vec{X: math.Min(lo.X, n.pos.X), Y: math.Min(lo.Y, n.pos.Y)}
		hi = r2.Vec{X: math.Max(hi.X, n.pos.X), Y: math.Max(hi.Y, n.pos.Y)}
	}
	return lo, hi
}
