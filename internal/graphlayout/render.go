package graphlayout

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// EdgeView is a line from a child to its parent.
type EdgeView struct {
	ChildID, ParentID string
	From, To          r2.Vec
}

// NodeView is a commit circle and its label.
type NodeView struct {
	ID      string
	Label   string
	Message string
	Pos     r2.Vec
	Radius  float64 // already multiplied by Scale
	Scale   float64
	Hovered bool
	Fill    color.RGBA
}

// PopupView is the detail card of a hovered node. Its bottom-right corner
// sits on the node; Scale doubles as opacity.
type PopupView struct {
	ID      string
	Label   string
	Message string
	Preview string
	Anchor  r2.Vec
	Width   float64
	Height  float64
	Scale   float64
}

// Renderer draws one frame. Render calls it with every edge, then every
// node, then every visible popup, so edges never cover nodes.
type Renderer interface {
	DrawEdge(EdgeView)
	DrawNode(NodeView)
	DrawPopup(PopupView)
}

// Render draws the current state to r.
func (e *Engine) Render(r Renderer) {
	for _, ed := range e.edges {
		r.DrawEdge(EdgeView{
			ChildID:  ed.child.ID,
			ParentID: ed.parent.ID,
			From:     ed.child.pos,
			To:       ed.parent.pos,
		})
	}
	for _, n := range e.nodes {
		r.DrawNode(NodeView{
			ID:      n.ID,
			Label:   n.Label,
			Message: n.Message,
			Pos:     n.pos,
			Radius:  e.params.NodeRadius * n.scale.value,
			Scale:   n.scale.value,
			Hovered: n.hovered,
			Fill:    LaneColor(n.lane),
		})
	}
	for _, n := range e.nodes {
		if n.popup.value <= 0 {
			continue
		}
		r.DrawPopup(PopupView{
			ID:      n.ID,
			Label:   n.Label,
			Message: n.Message,
			Preview: n.Preview,
			Anchor:  n.pos,
			Width:   e.params.PopupWidth,
			Height:  e.params.PopupHeight,
			Scale:   n.popup.value,
		})
	}
}

// LaneColor returns the pastel fill of the idx-th node: hue steps of 47
// degrees at low saturation and high value.
func LaneColor(idx int) color.RGBA {
	return hsv(float64((idx*47)%360), 80.0/255, 230.0/255)
}

func hsv(h, s, v float64) color.RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xff}
}
