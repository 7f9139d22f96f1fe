package graphlayout

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/errs"
)

func threeNodes() []Input {
	return []Input{
		{ID: "a", Label: "a"},
		{ID: "b", Parent: "a", Label: "b"},
		{ID: "c", Parent: "zzz", Label: "c"},
	}
}

func TestBuildPlacesOnCircleAndSkipsDanglingParents(t *testing.T) {
	e := Build(threeNodes(), DefaultParams())

	assert.Equal(t, 3, e.Len())
	assert.Equal(t, 1, e.EdgeCount(), "only b->a resolves")
	assert.True(t, e.Active())

	for _, id := range []string{"a", "b", "c"} {
		pos, ok := e.Position(id)
		require.True(t, ok)
		assert.InDelta(t, 200, r2.Norm(pos), 1e-9, id)
	}
	a, _ := e.Position("a")
	assert.InDelta(t, 200, a.X, 1e-9)
	assert.InDelta(t, 0, a.Y, 1e-9)
}

func TestBuildEdgeSetIsResolvedParentsOnly(t *testing.T) {
	e := Build(threeNodes(), DefaultParams())

	var rec recorder
	e.Render(&rec)
	require.Len(t, rec.edges, 1)
	assert.Equal(t, "b", rec.edges[0].ChildID)
	assert.Equal(t, "a", rec.edges[0].ParentID)
}

func TestBuildIgnoresDuplicateIDsAndSelfParents(t *testing.T) {
	e := Build([]Input{{ID: "a", Parent: "a"}, {ID: "a"}, {ID: "b", Parent: "a"}}, DefaultParams())
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 1, e.EdgeCount())
}

func TestSimulationConverges(t *testing.T) {
	p := DefaultParams()
	e := Build(threeNodes(), p)

	ticks := e.Run(100000)
	require.False(t, e.Active(), "no rest after %d ticks", ticks)
	assert.GreaterOrEqual(t, ticks, p.MinSteps)

	before := map[string]r2.Vec{}
	for _, id := range []string{"a", "b", "c"} {
		before[id], _ = e.Position(id)
	}
	e.Step()
	for id, was := range before {
		now, _ := e.Position(id)
		d := r2.Sub(now, was)
		assert.Less(t, math.Max(math.Abs(d.X), math.Abs(d.Y)), p.SpeedEps, id)
	}
}

func TestSpringPullsTowardRestLength(t *testing.T) {
	p := DefaultParams()
	e := Build([]Input{{ID: "a"}, {ID: "b", Parent: "a"}}, p)
	e.Run(100000)

	a, _ := e.Position("a")
	b, _ := e.Position("b")
	dist := r2.Norm(r2.Sub(a, b))
	// Springs balance repulsion: K/d^2 = k(d-L) puts d a little past L.
	assert.Greater(t, dist, p.SpringLen)
	assert.Less(t, dist, 2*p.SpringLen)
}

func TestMinimumRun(t *testing.T) {
	p := DefaultParams()

	t.Run("single node", func(t *testing.T) {
		e := Build([]Input{{ID: "solo"}}, p)
		assert.Equal(t, p.MinSteps, e.Run(100000))
		assert.False(t, e.Active())
	})

	t.Run("empty graph", func(t *testing.T) {
		e := Build(nil, p)
		assert.Equal(t, p.MinSteps, e.Run(100000))
	})

	t.Run("resume keeps the larger count", func(t *testing.T) {
		e := Build([]Input{{ID: "solo"}}, p)
		e.Run(10)
		e.Resume(5)
		assert.Equal(t, p.MinSteps-10, e.Run(100000))

		e.Resume(7)
		assert.True(t, e.Active())
		assert.Equal(t, 7, e.Run(100000))
	})
}

func TestHoverReenergizesSimulation(t *testing.T) {
	p := DefaultParams()
	e := Build([]Input{{ID: "solo"}}, p)
	e.Run(100000)
	require.False(t, e.Active())

	now := time.Unix(0, 0)
	require.NoError(t, e.HoverEnter("solo", now))
	assert.True(t, e.Active())
	assert.Equal(t, p.MinSteps, e.Run(100000))

	assert.ErrorIs(t, e.HoverEnter("ghost", now), errs.ErrNotFound)
	assert.ErrorIs(t, e.HoverLeave("ghost", now), ErrUnknownNode)
}

func TestHoverTransitions(t *testing.T) {
	p := DefaultParams()
	e := Build([]Input{{ID: "a", Label: "a"}}, p)
	start := time.Unix(100, 0)

	require.NoError(t, e.HoverEnter("a", start))
	assert.True(t, e.Animating())

	assert.True(t, e.Animate(start.Add(p.ScaleDuration/2)))
	var rec recorder
	e.Render(&rec)
	require.Len(t, rec.nodes, 1)
	mid := rec.nodes[0].Scale
	assert.Greater(t, mid, 1.0)
	assert.Less(t, mid, p.HoverScale)

	assert.False(t, e.Animate(start.Add(p.PopupDuration)))
	rec = recorder{}
	e.Render(&rec)
	assert.Equal(t, p.HoverScale, rec.nodes[0].Scale)
	assert.Equal(t, p.NodeRadius*p.HoverScale, rec.nodes[0].Radius)
	require.Len(t, rec.popups, 1)
	assert.Equal(t, 1.0, rec.popups[0].Scale)

	leave := start.Add(time.Second)
	require.NoError(t, e.HoverLeave("a", leave))
	e.Animate(leave.Add(p.ScaleDuration / 4))
	rec = recorder{}
	e.Render(&rec)
	assert.Less(t, rec.nodes[0].Scale, p.HoverScale)
	assert.Greater(t, rec.nodes[0].Scale, 1.0)

	e.Animate(leave.Add(p.PopupDuration))
	assert.False(t, e.Animating())
	rec = recorder{}
	e.Render(&rec)
	assert.Equal(t, 1.0, rec.nodes[0].Scale)
	assert.Empty(t, rec.popups)
}

func TestClickEmitsSelection(t *testing.T) {
	e := Build(threeNodes(), DefaultParams())
	var got []string
	e.OnSelect(func(id string) { got = append(got, id) })

	require.NoError(t, e.Click("b"))
	assert.ErrorIs(t, e.Click("nope"), ErrUnknownNode)
	assert.Equal(t, []string{"b"}, got)
}

func TestNodeAt(t *testing.T) {
	p := DefaultParams()
	e := Build([]Input{{ID: "a"}, {ID: "b"}}, p)

	id, ok := e.NodeAt(r2.Vec{X: 200 + p.NodeRadius + p.HitMargin - 1, Y: 0})
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = e.NodeAt(r2.Vec{})
	assert.False(t, ok)
}

func TestFromCommits(t *testing.T) {
	commits := []commitstore.Commit{
		{ID: "v_20250301_100000_deadbeef", Message: "init", Preview: "prev_x.png"},
		{ID: "v_20250301_100100_cafebabe", Parent: "v_20250301_100000_deadbeef", Message: "more"},
	}
	in := FromCommits(commits, func(c commitstore.Commit) string {
		if c.Preview == "" {
			return ""
		}
		return "/versions/" + c.Preview
	})
	require.Len(t, in, 2)
	assert.Equal(t, "deadbeef", in[0].Label)
	assert.Equal(t, "/versions/prev_x.png", in[0].Preview)
	assert.Equal(t, commits[0].ID, in[1].Parent)
	assert.Empty(t, in[1].Preview)
}

func TestLaneColor(t *testing.T) {
	c := LaneColor(0)
	assert.Equal(t, uint8(230), c.R)
	assert.Equal(t, uint8(158), c.G)
	assert.Equal(t, uint8(158), c.B)
	assert.Equal(t, LaneColor(0), LaneColor(360/gcd(47, 360)))
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
