package drawer

import (
	"io"
	"text/template"

	"github.com/pkg/errors"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// SVGDrawer writes the editor scene as a standalone SVG document, the way the
// editor shows it: every connection lives in its own padded box and is
// flipped into place by its transform.
type SVGDrawer struct {
	scene
	settings settings
}

// NewSVGDrawer creates a new SVG drawer.
func NewSVGDrawer(opts ...Option) *SVGDrawer {
	d := &SVGDrawer{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&d.settings)
	}

	return d
}

// AddStep adds a step to the scene.
func (d *SVGDrawer) AddStep(frame view.StepFrame) error {
	d.steps = append(d.steps, frame)

	return nil
}

// AddConnection adds a connection to the scene, open ones included.
func (d *SVGDrawer) AddConnection(frame view.ConnectionFrame) error {
	d.connections = append(d.connections, frame)

	return nil
}

//nolint:lll //this is a template
const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="{{.View.X}} {{.View.Y}} {{.View.Width}} {{.View.Height}}" width="{{.View.Width}}" height="{{.View.Height}}">
<rect x="{{.View.X}}" y="{{.View.Y}}" width="{{.View.Width}}" height="{{.View.Height}}" fill="{{.Palette.Background}}"/>
{{range .Connections}}<g class="connection{{if .Flipped}} flipped{{end}}{{if .FlippedHorizontal}} flipped-horizontal{{end}}{{if .Open}} open{{end}}" data-from="{{html .From}}" data-to="{{html .To}}" transform="{{.Transform}}">
	<path d="{{.Path}}" fill="none" stroke="{{if .Selected}}{{$.Palette.ConnectionSelected}}{{else}}{{$.Palette.Connection}}{{end}}" stroke-width="2"/>
</g>
{{end}}{{range .Steps}}{{if not .Hidden}}<g class="step{{if .Selected}} selected{{end}}{{if .Dragged}} dragged{{end}}" data-uuid="{{html .UUID}}" transform="translate({{.Bounds.X}} {{.Bounds.Y}})">
	<rect width="{{.Bounds.Width}}" height="{{.Bounds.Height}}" rx="6" fill="{{if .Selected}}{{$.Palette.StepSelected}}{{else}}{{$.Palette.Step}}{{end}}" stroke="{{$.Palette.Border}}"/>
	<text x="{{half .Bounds.Width}}" y="{{half .Bounds.Height}}" text-anchor="middle" dominant-baseline="middle" fill="{{$.Palette.Text}}">{{html .Title}}</text>
	<text x="{{half .Bounds.Width}}" y="{{sub .Bounds.Height 12}}" text-anchor="middle" font-size="10" fill="{{$.Palette.Text}}">{{html .FilePath}}</text>
	<circle class="input" cx="{{sub (centerX .Input) .Bounds.X}}" cy="{{sub (centerY .Input) .Bounds.Y}}" r="{{half .Input.Width}}" fill="{{$.Palette.Anchor}}"/>
	<circle class="output" cx="{{sub (centerX .Output) .Bounds.X}}" cy="{{sub (centerY .Output) .Bounds.Y}}" r="{{half .Output.Width}}" fill="{{$.Palette.Anchor}}"/>
</g>
{{end}}{{end}}</svg>
`

var svgFuncs = template.FuncMap{
	"half":    func(f float64) float64 { return f / 2 },
	"sub":     func(a, b float64) float64 { return a - b },
	"centerX": func(r geometry.Rect) float64 { return geometry.Center(r).X },
	"centerY": func(r geometry.Rect) float64 { return geometry.Center(r).Y },
}

// Draw writes the SVG document.
func (d *SVGDrawer) Draw(wrt io.Writer) error {
	if err := d.settings.palette.Validate(); err != nil {
		return errors.Wrap(err, "unable to draw svg")
	}

	tpl, err := template.New("svgTemplate").Funcs(svgFuncs).Parse(svgTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, struct {
		View        geometry.Rect
		Palette     Palette
		Steps       []view.StepFrame
		Connections []view.ConnectionFrame
	}{
		View:        d.bounds(d.settings.margin),
		Palette:     d.settings.palette,
		Steps:       d.steps,
		Connections: d.connections,
	})
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*SVGDrawer)(nil)
