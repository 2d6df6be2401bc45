package drawer

import (
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

const (
	fontSize   = 12.0
	arrowSize  = 6.0
	arrowAngle = 0.5
)

// PNGDrawer rasterises the editor scene.
type PNGDrawer struct {
	scene
	settings settings
}

// NewPNGDrawer creates a new PNG drawer.
func NewPNGDrawer(opts ...Option) *PNGDrawer {
	d := &PNGDrawer{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&d.settings)
	}

	return d
}

// AddStep adds a step to the scene.
func (d *PNGDrawer) AddStep(frame view.StepFrame) error {
	d.steps = append(d.steps, frame)

	return nil
}

// AddConnection adds a connection to the scene.
func (d *PNGDrawer) AddConnection(frame view.ConnectionFrame) error {
	d.connections = append(d.connections, frame)

	return nil
}

// Draw encodes the scene as a PNG image.
func (d *PNGDrawer) Draw(wrt io.Writer) error {
	if err := d.settings.palette.Validate(); err != nil {
		return errors.Wrap(err, "unable to draw png")
	}

	area := d.bounds(d.settings.margin)
	scale := d.settings.scale
	width := int(math.Ceil(area.Width * scale))
	height := int(math.Ceil(area.Height * scale))

	dc := gg.NewContext(width, height)
	dc.Scale(scale, scale)
	dc.Translate(-area.X, -area.Y)

	if err := setColour(dc, d.settings.palette.Background); err != nil {
		return err
	}
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return errors.Wrap(err, "failed to parse font")
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	// Connections first so that steps are drawn over their ends.
	for _, conn := range d.connections {
		if err := d.drawConnection(dc, conn); err != nil {
			return err
		}
	}

	for _, step := range d.steps {
		if step.Hidden {
			continue
		}
		if err := d.drawStep(dc, step); err != nil {
			return err
		}
	}

	if err := dc.EncodePNG(wrt); err != nil {
		return errors.Wrap(err, "unable to encode png")
	}

	return nil
}

func (d *PNGDrawer) drawConnection(dc *gg.Context, conn view.ConnectionFrame) error {
	colour := d.settings.palette.Connection
	if conn.Selected {
		colour = d.settings.palette.ConnectionSelected
	}
	if err := setColour(dc, colour); err != nil {
		return err
	}

	dc.SetLineWidth(2)
	if conn.Open {
		dc.SetDash(4, 4)
	}
	dc.MoveTo(conn.Start.X, conn.Start.Y)
	dc.CubicTo(conn.Control1.X, conn.Control1.Y, conn.Control2.X, conn.Control2.Y, conn.End.X, conn.End.Y)
	dc.Stroke()
	dc.SetDash()

	drawArrow(dc, conn.Control2, conn.End)

	return nil
}

func drawArrow(dc *gg.Context, from, to geometry.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-arrowSize*dx+arrowSize*dy*arrowAngle, to.Y-arrowSize*dy-arrowSize*dx*arrowAngle)
	dc.LineTo(to.X-arrowSize*dx-arrowSize*dy*arrowAngle, to.Y-arrowSize*dy+arrowSize*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}

func (d *PNGDrawer) drawStep(dc *gg.Context, step view.StepFrame) error {
	p := d.settings.palette
	b := step.Bounds

	fill := p.Step
	if step.Selected {
		fill = p.StepSelected
	}
	if err := setColour(dc, fill); err != nil {
		return err
	}
	dc.DrawRoundedRectangle(b.X, b.Y, b.Width, b.Height, 6)
	dc.FillPreserve()
	if err := setColour(dc, p.Border); err != nil {
		return err
	}
	dc.SetLineWidth(1)
	dc.Stroke()

	if err := setColour(dc, p.Anchor); err != nil {
		return err
	}
	for _, anchor := range []geometry.Rect{step.Input, step.Output} {
		c := geometry.Center(anchor)
		dc.DrawCircle(c.X, c.Y, anchor.Width/2)
		dc.Fill()
	}

	if err := setColour(dc, p.Text); err != nil {
		return err
	}
	center := geometry.Center(b)
	dc.DrawStringAnchored(step.Title, center.X, center.Y, 0.5, 0.5)
	if step.FilePath != "" {
		dc.DrawStringAnchored(step.FilePath, center.X, b.Y+b.Height-fontSize, 0.5, 0.5)
	}

	return nil
}

func setColour(dc *gg.Context, hex string) error {
	c, err := rgb(hex)
	if err != nil {
		return err
	}
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))

	return nil
}

var _ Drawer = (*PNGDrawer)(nil)
