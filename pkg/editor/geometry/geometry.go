// Package geometry holds the 2D point and rectangle math used by the editor.
// Every function is pure: no state, no errors.
package geometry

import "math"

// Point is a position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the delta from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Offset returns p translated by (dx, dy).
func (p Point) Offset(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Scale multiplies both coordinates by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Manhattan returns |x| + |y|.
func (p Point) Manhattan() float64 {
	return math.Abs(p.X) + math.Abs(p.Y)
}

// Dist returns the euclidean distance between p and q.
func Dist(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned box. X, Y is the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the smallest rectangle holding a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Canon normalises negative sizes so that Width and Height are >= 0.
func (r Rect) Canon() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}

	return r
}

// Min is the top-left corner.
func (r Rect) Min() Point {
	r = r.Canon()

	return Point{X: r.X, Y: r.Y}
}

// Max is the bottom-right corner.
func (r Rect) Max() Point {
	r = r.Canon()

	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Translate moves r by d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y

	return r
}

// Contains reports whether p is inside r, edges included.
func (r Rect) Contains(p Point) bool {
	lo, hi := r.Min(), r.Max()

	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}

// Center returns the midpoint of r.
func Center(r Rect) Point {
	r = r.Canon()

	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// RelativeTo converts a viewport point into coordinates relative to the
// top-left corner of origin.
func RelativeTo(p Point, origin Rect) Point {
	return p.Sub(origin.Min())
}

// Intersects reports whether a and b overlap. Touching edges count as an
// overlap so that zero-area rectangles (points, lines) lying on or inside the
// other rectangle intersect it.
func Intersects(a, b Rect) bool {
	aMin, aMax := a.Min(), a.Max()
	bMin, bMax := b.Min(), b.Max()

	return aMin.X <= bMax.X && bMin.X <= aMax.X &&
		aMin.Y <= bMax.Y && bMin.Y <= aMax.Y
}

// CubicBezier evaluates the cubic curve p0, c1, c2, p3 at t in [0, 1].
func CubicBezier(p0, c1, c2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t

	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p3.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p3.Y,
	}
}

// SegmentDist returns the distance from p to the segment a-b.
func SegmentDist(p, a, b Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return Dist(p, a)
	}

	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = math.Max(0, math.Min(1, t))

	return Dist(p, a.Add(d.Scale(t)))
}
