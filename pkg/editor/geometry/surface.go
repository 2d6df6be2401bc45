package geometry

// Surface describes the scrollable, zoomable container steps live in.
// Bounds is the container's box in viewport coordinates.
type Surface struct {
	Bounds Rect    `json:"bounds"`
	Scroll Point   `json:"scroll"`
	Zoom   float64 `json:"zoom"`
}

func (s Surface) zoom() float64 {
	if s.Zoom <= 0 {
		return 1
	}

	return s.Zoom
}

// ToLocal converts a viewport point into the editor's local coordinate space.
func (s Surface) ToLocal(p Point) Point {
	return RelativeTo(p, s.Bounds).Add(s.Scroll).Scale(1 / s.zoom())
}

// ToViewport is the inverse of ToLocal.
func (s Surface) ToViewport(p Point) Point {
	return p.Scale(s.zoom()).Sub(s.Scroll).Add(s.Bounds.Min())
}

// LocalCenter is the centre of the visible area in local coordinates.
func (s Surface) LocalCenter() Point {
	return s.ToLocal(Center(s.Bounds))
}
