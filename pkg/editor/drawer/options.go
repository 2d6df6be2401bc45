package drawer

import (
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// Palette holds the scene colours as hex strings.
type Palette struct {
	Background         string `mapstructure:"background"`
	Step               string `mapstructure:"step"`
	StepSelected       string `mapstructure:"step_selected"`
	Border             string `mapstructure:"border"`
	Text               string `mapstructure:"text"`
	Anchor             string `mapstructure:"anchor"`
	Connection         string `mapstructure:"connection"`
	ConnectionSelected string `mapstructure:"connection_selected"`
}

// DefaultPalette returns the stock colours.
func DefaultPalette() Palette {
	return Palette{
		Background:         "#ffffff",
		Step:               "#f5f7fa",
		StepSelected:       "#dbeafe",
		Border:             "#4b5563",
		Text:               "#111827",
		Anchor:             "#9ca3af",
		Connection:         "#6b7280",
		ConnectionSelected: "#2563eb",
	}
}

// Validate checks that every colour is a valid hex colour.
func (p Palette) Validate() error {
	for name, value := range map[string]string{
		"background":          p.Background,
		"step":                p.Step,
		"step_selected":       p.StepSelected,
		"border":              p.Border,
		"text":                p.Text,
		"anchor":              p.Anchor,
		"connection":          p.Connection,
		"connection_selected": p.ConnectionSelected,
	} {
		if _, err := colors.ParseHEX(value); err != nil {
			return errors.Wrapf(ErrInvalidColour, "%s %q: %s", name, value, err)
		}
	}

	return nil
}

func rgb(hex string) (*colors.RGBColor, error) {
	c, err := colors.ParseHEX(hex)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidColour, "%q: %s", hex, err)
	}

	return c.ToRGB(), nil
}

type settings struct {
	palette Palette
	margin  float64
	scale   float64
}

func defaultSettings() settings {
	return settings{
		palette: DefaultPalette(),
		margin:  20,
		scale:   1,
	}
}

// Option configures a drawer.
type Option func(s *settings)

// WithPalette overrides the default colours.
func WithPalette(p Palette) Option {
	return func(s *settings) {
		s.palette = p
	}
}

// WithMargin sets the room left around the scene.
func WithMargin(m float64) Option {
	return func(s *settings) {
		s.margin = m
	}
}

// WithScale sets the raster scale factor of the PNG drawer.
func WithScale(f float64) Option {
	return func(s *settings) {
		if f > 0 {
			s.scale = f
		}
	}
}

type scene struct {
	steps       []view.StepFrame
	connections []view.ConnectionFrame
}

func (sc *scene) bounds(margin float64) geometry.Rect {
	first := true
	var lo, hi geometry.Point
	grow := func(r geometry.Rect) {
		rMin, rMax := r.Min(), r.Max()
		if first {
			lo, hi, first = rMin, rMax, false
			return
		}
		lo = geometry.Pt(min(lo.X, rMin.X), min(lo.Y, rMin.Y))
		hi = geometry.Pt(max(hi.X, rMax.X), max(hi.Y, rMax.Y))
	}
	for _, s := range sc.steps {
		grow(s.Bounds)
		grow(s.Input)
		grow(s.Output)
	}
	for _, c := range sc.connections {
		grow(c.Box)
	}

	return geometry.RectFromPoints(lo.Offset(-margin, -margin), hi.Offset(margin, margin))
}
