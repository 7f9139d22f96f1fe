package graphlayout

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// SVGRenderer accumulates a frame as SVG elements.
type SVGRenderer struct {
	buf bytes.Buffer
}

func (s *SVGRenderer) DrawEdge(ev EdgeView) {
	fmt.Fprintf(&s.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="gray" stroke-width="2"/>`+"\n",
		ev.From.X, ev.From.Y, ev.To.X, ev.To.Y)
}

func (s *SVGRenderer) DrawNode(nv NodeView) {
	fmt.Fprintf(&s.buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#%02x%02x%02x" stroke="black" stroke-width="2"/>`+"\n",
		nv.Pos.X, nv.Pos.Y, nv.Radius, nv.Fill.R, nv.Fill.G, nv.Fill.B)
	fmt.Fprintf(&s.buf, `<text x="%.2f" y="%.2f" font-family="Noto Sans" font-size="9">`,
		nv.Pos.X+nv.Radius+4, nv.Pos.Y-nv.Radius+7)
	s.text(nv.Label + "  " + nv.Message)
	s.buf.WriteString("</text>\n")
}

func (s *SVGRenderer) DrawPopup(pv PopupView) {
	x, y := pv.Anchor.X-pv.Width*pv.Scale, pv.Anchor.Y-pv.Height*pv.Scale
	fmt.Fprintf(&s.buf, `<g opacity="%.3f" transform="translate(%.2f %.2f) scale(%.3f)">`+"\n",
		pv.Scale, x, y, pv.Scale)
	fmt.Fprintf(&s.buf, `<rect width="%.0f" height="%.0f" fill="#222"/>`+"\n", pv.Width, pv.Height)
	if pv.Preview != "" {
		s.buf.WriteString(`<image href="`)
		s.text(pv.Preview)
		fmt.Fprintf(&s.buf, `" width="%.0f" height="%.0f" preserveAspectRatio="xMidYMid meet"/>`+"\n", pv.Width, pv.Height)
	}
	fmt.Fprintf(&s.buf, `<text y="%.0f" font-size="9">`, pv.Height+14)
	s.text(pv.Message)
	fmt.Fprintf(&s.buf, "</text>\n"+`<text y="%.0f" font-size="9" fill="#b4b4b4">`, pv.Height+30)
	s.text(pv.Label)
	s.buf.WriteString("</text>\n</g>\n")
}

func (s *SVGRenderer) text(v string) {
	xml.EscapeText(&s.buf, []byte(v))
}

// WriteSVG renders e as a standalone SVG document sized to its bounds.
func WriteSVG(w io.Writer, e *Engine) error {
	var s SVGRenderer
	e.Render(&s)

	pad := e.params.NodeRadius*e.params.HoverScale + math.Max(e.params.PopupWidth, e.params.PopupHeight)
	lo, hi := e.Bounds()
	lo = r2.Sub(lo, r2.Vec{X: pad, Y: pad})
	hi = r2.Add(hi, r2.Vec{X: pad, Y: pad})
	size := r2.Sub(hi, lo)

	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`+"\n"+
		`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#303030"/>`+"\n%s</svg>\n",
		lo.X, lo.Y, size.X, size.Y, size.X, size.Y,
		lo.X, lo.Y, size.X, size.Y, s.buf.Bytes())
	return err
}
