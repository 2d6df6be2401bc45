package view

import (
	"github.com/pkg/errors"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

// AnchorKind tells an input port from an output port.
type AnchorKind int

const (
	// Input is the port on the left edge; connections end there.
	Input AnchorKind = iota
	// Output is the port on the right edge; connections start there.
	Output
)

func (k AnchorKind) String() string {
	if k == Input {
		return "input"
	}

	return "output"
}

// Anchor is a port of a step. Its position follows the step wrapper.
type Anchor struct {
	Step *StepView
	Kind AnchorKind
}

// Rect is the anchor's hit box in local coordinates.
func (a Anchor) Rect() geometry.Rect {
	l := a.Step.layout
	x := a.Step.X - l.AnchorSize/2
	if a.Kind == Output {
		x += l.StepWidth
	}

	return geometry.Rect{
		X:      x,
		Y:      a.Step.Y + (l.StepHeight-l.AnchorSize)/2,
		Width:  l.AnchorSize,
		Height: l.AnchorSize,
	}
}

// Point is where a connection attaches.
func (a Anchor) Point() geometry.Point {
	return geometry.Center(a.Rect())
}

// StepFrame is a rendered step.
type StepFrame struct {
	UUID      string        `json:"uuid"`
	Title     string        `json:"title"`
	FilePath  string        `json:"file_path"`
	Bounds    geometry.Rect `json:"bounds"`
	Input     geometry.Rect `json:"input"`
	Output    geometry.Rect `json:"output"`
	Transform string        `json:"transform"`
	Dragged   bool          `json:"dragged"`
	Selected  bool          `json:"selected"`
	Hidden    bool          `json:"hidden"`
}

// StepView wraps a model step with its on-screen position. X and Y only reach
// the model on Commit.
type StepView struct {
	X, Y     float64
	Dragged  bool
	Selected bool

	pipe     *model.Pipeline
	step     *model.Step
	layout   Layout
	onCommit func(*StepView)
}

// StepViewOption configures a step wrapper.
type StepViewOption func(v *StepView)

// WithLayout overrides the default node dimensions.
func WithLayout(l Layout) StepViewOption {
	return func(v *StepView) {
		v.layout = l
	}
}

// OnCommit registers the hook called after every successful Commit.
func OnCommit(fn func(*StepView)) StepViewOption {
	return func(v *StepView) {
		v.onCommit = fn
	}
}

// NewStepView wraps step, which must belong to pipe. The screen position is
// initialised from the persisted one.
func NewStepView(pipe *model.Pipeline, step *model.Step, opts ...StepViewOption) *StepView {
	v := &StepView{
		pipe:   pipe,
		step:   step,
		layout: DefaultLayout(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.Sync()

	return v
}

// UUID returns the wrapped step uuid.
func (v *StepView) UUID() string {
	return v.step.UUID()
}

// Step returns the wrapped model step.
func (v *StepView) Step() *model.Step {
	return v.step
}

// Position returns the current screen position.
func (v *StepView) Position() geometry.Point {
	return geometry.Pt(v.X, v.Y)
}

// MoveBy translates the wrapper by d.
func (v *StepView) MoveBy(d geometry.Point) {
	v.X += d.X
	v.Y += d.Y
}

// MoveTo places the wrapper at p.
func (v *StepView) MoveTo(p geometry.Point) {
	v.X, v.Y = p.X, p.Y
}

// Bounds is the node box in local coordinates.
func (v *StepView) Bounds() geometry.Rect {
	return geometry.Rect{X: v.X, Y: v.Y, Width: v.layout.StepWidth, Height: v.layout.StepHeight}
}

// Anchor returns the port of the given kind.
func (v *StepView) Anchor(kind AnchorKind) Anchor {
	return Anchor{Step: v, Kind: kind}
}

// Render returns the current frame of the step. It has no side effects.
func (v *StepView) Render() StepFrame {
	return StepFrame{
		UUID:      v.step.UUID(),
		Title:     v.step.Title,
		FilePath:  v.step.FilePath,
		Bounds:    v.Bounds(),
		Input:     v.Anchor(Input).Rect(),
		Output:    v.Anchor(Output).Rect(),
		Transform: "translateX(" + num(v.X) + "px) translateY(" + num(v.Y) + "px)",
		Dragged:   v.Dragged,
		Selected:  v.Selected,
		Hidden:    v.step.MetaData.Hidden,
	}
}

// Commit writes the screen position back into the step's meta_data and calls
// the commit hook.
func (v *StepView) Commit() error {
	if err := v.pipe.SetPosition(v.step.UUID(), v.Position()); err != nil {
		return errors.Wrap(err, "unable to commit step position")
	}
	v.Dragged = false
	if v.onCommit != nil {
		v.onCommit(v)
	}

	return nil
}

// Sync discards the screen position and reloads the persisted one.
func (v *StepView) Sync() {
	pos := v.step.Position()
	v.X, v.Y = pos.X, pos.Y
}
