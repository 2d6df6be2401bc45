package view

import (
	"math"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

// hitSamples is the number of segments a curve is split into for hit testing.
const hitSamples = 32

// ConnectionFrame is a rendered connection.
//
// Start, End and the control points are in local coordinates. Box is the SVG
// element holding the curve; Path is drawn inside the box in the unflipped
// orientation and Transform maps it back onto Start and End.
type ConnectionFrame struct {
	From              string         `json:"from"`
	To                string         `json:"to,omitempty"`
	Start             geometry.Point `json:"start"`
	End               geometry.Point `json:"end"`
	Control1          geometry.Point `json:"control1"`
	Control2          geometry.Point `json:"control2"`
	Box               geometry.Rect  `json:"box"`
	Path              string         `json:"path"`
	Transform         string         `json:"transform"`
	Flipped           bool           `json:"flipped"`
	FlippedHorizontal bool           `json:"flipped_horizontal"`
	Open              bool           `json:"open"`
	Selected          bool           `json:"selected"`
}

// AbsolutePath is the curve in local coordinates, without box or transform.
func (f ConnectionFrame) AbsolutePath() string {
	return "M " + num(f.Start.X) + " " + num(f.Start.Y) +
		" C " + num(f.Control1.X) + " " + num(f.Control1.Y) +
		", " + num(f.Control2.X) + " " + num(f.Control2.Y) +
		", " + num(f.End.X) + " " + num(f.End.Y)
}

// Point evaluates the curve at t in [0, 1].
func (f ConnectionFrame) Point(t float64) geometry.Point {
	return geometry.CubicBezier(f.Start, f.Control1, f.Control2, f.End, t)
}

// Near reports whether p lies within tolerance of the curve.
func (f ConnectionFrame) Near(p geometry.Point, tolerance float64) bool {
	prev := f.Start
	for i := 1; i <= hitSamples; i++ {
		next := f.Point(float64(i) / hitSamples)
		if geometry.SegmentDist(p, prev, next) <= tolerance {
			return true
		}
		prev = next
	}

	return false
}

// ConnectionView draws a connection from an output anchor to an input anchor.
// While End is nil the connection is open and follows the pointer.
type ConnectionView struct {
	Start    Anchor
	End      *Anchor
	Selected bool

	open   geometry.Point
	layout Layout
}

// NewConnectionView returns an open connection starting at start.
func NewConnectionView(start Anchor, layout Layout) *ConnectionView {
	return &ConnectionView{
		Start:  start,
		open:   start.Point(),
		layout: layout,
	}
}

// Track moves the open end to p, in local coordinates.
func (c *ConnectionView) Track(p geometry.Point) {
	c.open = p
}

// Attach closes the connection on end.
func (c *ConnectionView) Attach(end Anchor) {
	c.End = &end
}

// IsOpen reports whether the connection is still being drawn.
func (c *ConnectionView) IsOpen() bool {
	return c.End == nil
}

// Key returns the model connection. It is false while the connection is open.
func (c *ConnectionView) Key() (model.Connection, bool) {
	if c.End == nil {
		return model.Connection{}, false
	}

	return model.Connection{From: c.Start.Step.UUID(), To: c.End.Step.UUID()}, true
}

// Touches reports whether either end belongs to the step uuid.
func (c *ConnectionView) Touches(uuid string) bool {
	if c.Start.Step.UUID() == uuid {
		return true
	}

	return c.End != nil && c.End.Step.UUID() == uuid
}

func (c *ConnectionView) endPoint() geometry.Point {
	if c.End == nil {
		return c.open
	}

	return c.End.Point()
}

// Render recomputes the curve from the current anchor positions. Control
// points sit at the horizontal midpoint, each at its endpoint's height, so the
// curve leaves and enters horizontally.
func (c *ConnectionView) Render() ConnectionFrame {
	start := c.Start.Point()
	end := c.endPoint()
	mx := (start.X + end.X) / 2
	dx, dy := end.X-start.X, end.Y-start.Y
	w, h := math.Abs(dx), math.Abs(dy)
	p := c.layout.Padding

	frame := ConnectionFrame{
		From:              c.Start.Step.UUID(),
		Start:             start,
		End:               end,
		Control1:          geometry.Pt(mx, start.Y),
		Control2:          geometry.Pt(mx, end.Y),
		Flipped:           dy < 0,
		FlippedHorizontal: dx < 0,
		Open:              c.End == nil,
		Selected:          c.Selected,
		Box: geometry.Rect{
			X:      math.Min(start.X, end.X) - p,
			Y:      math.Min(start.Y, end.Y) - p,
			Width:  w + 2*p,
			Height: h + 2*p,
		},
	}
	if c.End != nil {
		frame.To = c.End.Step.UUID()
	}

	frame.Path = "M " + num(p) + " " + num(p) +
		" C " + num(p+w/2) + " " + num(p) +
		", " + num(p+w/2) + " " + num(p+h) +
		", " + num(p+w) + " " + num(p+h)

	tx, sx := frame.Box.X, 1.0
	if frame.FlippedHorizontal {
		tx, sx = frame.Box.X+frame.Box.Width, -1
	}
	ty, sy := frame.Box.Y, 1.0
	if frame.Flipped {
		ty, sy = frame.Box.Y+frame.Box.Height, -1
	}
	frame.Transform = "translate(" + num(tx) + " " + num(ty) + ") scale(" + num(sx) + " " + num(sy) + ")"

	return frame
}
