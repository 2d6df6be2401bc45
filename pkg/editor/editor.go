// Package editor is the pipeline graph editor controller. It owns the step and
// connection wrappers of one loaded pipeline, feeds pointer and keyboard
// events to the interaction machine and loads and saves the pipeline document
// through a Backend.
//
// Everything but saving runs on the goroutine events are dispatched on.
package editor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/interaction"
	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

const (
	cascadeStep     = 20
	maxCascade      = 50
	defaultHitSlack = 6
)

// Backend loads and saves pipeline documents.
type Backend interface {
	Load(ctx context.Context, pipelineUUID string) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
}

// Editor is the controller of one editor session.
type Editor struct {
	backend  Backend
	logger   *zap.Logger
	observer Observer
	measure  measure.Measure

	layout    view.Layout
	surface   geometry.Surface
	threshold float64
	tolerance float64

	handles []interaction.Handle
	machine *interaction.Machine
	saver   *saver

	pipe      *model.Pipeline
	steps     map[string]*view.StepView
	conns     map[model.Connection]*view.ConnectionView
	frames    map[model.Connection]view.ConnectionFrame
	transient *view.ConnectionFrame
	selected  string
	dirty     bool
	closed    bool
}

// New creates an editor and attaches its listeners to dispatcher. They stay
// attached until Close, whatever the number of loads.
func New(backend Backend, dispatcher *interaction.Dispatcher, opts ...Option) *Editor {
	e := &Editor{
		backend:   backend,
		logger:    zap.NewNop(),
		observer:  NopObserver{},
		layout:    view.DefaultLayout(),
		tolerance: defaultHitSlack,
		steps:     make(map[string]*view.StepView),
		conns:     make(map[model.Connection]*view.ConnectionView),
		frames:    make(map[model.Connection]view.ConnectionFrame),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.machine = interaction.NewMachine((*scene)(e),
		interaction.WithLogger(e.logger),
		interaction.WithDragThreshold(e.threshold),
	)
	e.saver = newSaver(backend, e.logger, e.observer, e.measure)

	for _, typ := range []interaction.EventType{
		interaction.PointerDown,
		interaction.PointerMove,
		interaction.PointerUp,
		interaction.KeyDown,
	} {
		e.handles = append(e.handles, dispatcher.Subscribe(typ, e.listen))
	}

	return e
}

func (e *Editor) listen(ev interaction.Event) {
	if err := e.HandleEvent(ev); err != nil {
		e.logger.Warn("event not handled",
			zap.String("type", string(ev.Type)),
			zap.String("target", string(ev.Target.Kind)),
			zap.Error(err),
		)
	}
}

// Close detaches the listeners and waits for the pending saves. Calling it
// again does nothing.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true

	for _, h := range e.handles {
		h.Remove()
	}
	e.handles = nil
	e.saver.close()
}

// Load fetches a pipeline and rebuilds every wrapper from it. Any gesture in
// progress is dropped.
func (e *Editor) Load(ctx context.Context, pipelineUUID string) error {
	if e.closed {
		return ErrClosed
	}

	start := time.Now()
	doc, err := e.backend.Load(ctx, pipelineUUID)
	measure.Observe(e.measure, "load", start, err)
	if err != nil {
		return errors.Wrapf(err, "unable to load pipeline %s", pipelineUUID)
	}

	pipe, dropped, err := model.Deserialize(doc)
	if err != nil {
		return errors.Wrapf(err, "unable to read pipeline %s", pipelineUUID)
	}
	if len(dropped) > 0 {
		e.logger.Warn("invalid connections dropped",
			zap.String("pipeline", pipelineUUID),
			zap.Any("connections", dropped),
		)
	}

	e.machine.Reset()
	e.pipe = pipe
	e.steps = make(map[string]*view.StepView, pipe.Len())
	e.conns = make(map[model.Connection]*view.ConnectionView)
	e.frames = make(map[model.Connection]view.ConnectionFrame)
	e.transient = nil
	e.selected = ""
	e.dirty = false

	for _, step := range pipe.Steps() {
		e.addStepView(step)
	}

	// A connection is only built once both of its anchors exist.
	for _, c := range pipe.Connections() {
		if _, err := e.addConnectionView(c); err != nil {
			e.logger.Warn("connection without anchors", zap.Any("connection", c), zap.Error(err))
		}
	}

	e.logger.Info("pipeline loaded",
		zap.String("pipeline", pipe.UUID()),
		zap.Int("steps", pipe.Len()),
		zap.Int("connections", len(e.conns)),
	)
	e.observer.OnLoad(pipe.UUID(), dropped)

	return nil
}

func (e *Editor) addStepView(step *model.Step) *view.StepView {
	v := view.NewStepView(e.pipe, step,
		view.WithLayout(e.layout),
		view.OnCommit(e.onCommit),
	)
	e.steps[step.UUID()] = v

	return v
}

func (e *Editor) addConnectionView(c model.Connection) (*view.ConnectionView, error) {
	start, ok := e.steps[c.From]
	if !ok {
		return nil, errors.Wrapf(model.ErrStepNotFound, "start %s", c.From)
	}
	end, ok := e.steps[c.To]
	if !ok {
		return nil, errors.Wrapf(model.ErrStepNotFound, "end %s", c.To)
	}

	conn := view.NewConnectionView(start.Anchor(view.Output), e.layout)
	conn.Attach(end.Anchor(view.Input))
	e.conns[c] = conn
	e.frames[c] = conn.Render()

	return conn, nil
}

func (e *Editor) onCommit(_ *view.StepView) {
	(*scene)(e).RenderConnections()
	e.markDirty()
}

func (e *Editor) markDirty() {
	e.dirty = true
	e.observer.OnDirty()
}

// Save serializes the pipeline and queues it for the backend. It returns as
// soon as the document is queued: requests are sent one at a time in the order
// Save was called, so the last request sent wins. Failures are not retried;
// they reach the observer and the log.
func (e *Editor) Save(ctx context.Context) error {
	if e.closed {
		return ErrClosed
	}
	if e.pipe == nil {
		return ErrNotLoaded
	}

	if err := e.saver.enqueue(context.WithoutCancel(ctx), e.pipe.Serialize()); err != nil {
		return err
	}
	e.dirty = false

	return nil
}

// AddStep creates a step near the centre of the viewport and returns its uuid.
// The position cascades while another step already sits in the slot.
func (e *Editor) AddStep(title, filePath string) (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	if e.pipe == nil {
		return "", ErrNotLoaded
	}

	pos := e.surface.LocalCenter().Offset(-e.layout.StepWidth/2, -e.layout.StepHeight/2)
	for i := 0; i < maxCascade && e.occupied(pos); i++ {
		pos = pos.Offset(cascadeStep, cascadeStep)
	}

	id := uuid.NewString()
	step := model.NewStep(id, title, filePath, model.WithPosition(pos))
	if err := e.pipe.AddStep(step); err != nil {
		return "", errors.Wrap(err, "unable to add step")
	}
	e.addStepView(step)
	e.markDirty()

	e.logger.Debug("step added", zap.String("step", id), zap.String("file_path", filePath))

	return id, nil
}

func (e *Editor) occupied(p geometry.Point) bool {
	for _, v := range e.steps {
		if v.Position() == p {
			return true
		}
	}

	return false
}

// DeleteStep removes a step, every connection touching it from the model and
// their wrappers.
func (e *Editor) DeleteStep(stepUUID string) error {
	if e.closed {
		return ErrClosed
	}
	if e.pipe == nil {
		return ErrNotLoaded
	}

	removed, err := e.pipe.RemoveStep(stepUUID)
	if err != nil {
		return errors.Wrap(err, "unable to delete step")
	}

	for _, c := range removed {
		if conn, ok := e.conns[c]; ok {
			e.machine.Forget(conn)
		}
		delete(e.conns, c)
		delete(e.frames, c)
	}
	e.machine.ForgetStep(stepUUID)
	if e.machine.Transient() == nil {
		e.transient = nil
	}
	delete(e.steps, stepUUID)

	if e.selected == stepUUID {
		e.selected = ""
		e.observer.OnStepSelected("")
	}
	e.markDirty()

	e.logger.Debug("step deleted", zap.String("step", stepUUID), zap.Int("connections", len(removed)))

	return nil
}

// HandleEvent feeds one event to the interaction machine. Pointer events
// without a target are hit tested first.
func (e *Editor) HandleEvent(ev interaction.Event) error {
	if e.closed {
		return ErrClosed
	}
	if e.pipe == nil {
		return ErrNotLoaded
	}
	if ev.Type != interaction.KeyDown && ev.Target.Kind == "" {
		ev.Target = e.HitTest(ev.Point)
	}

	return e.machine.Handle(ev)
}

// HitTest finds what lies under a viewport point. Steps drawn last are on top;
// anchors win over the step body and steps win over connections.
func (e *Editor) HitTest(p geometry.Point) interaction.Target {
	if e.pipe == nil {
		return interaction.Target{Kind: interaction.TargetNone}
	}

	local := e.surface.ToLocal(p)
	steps := e.pipe.Steps()

	for i := len(steps) - 1; i >= 0; i-- {
		v, ok := e.steps[steps[i].UUID()]
		if !ok || steps[i].MetaData.Hidden {
			continue
		}
		switch {
		case v.Anchor(view.Output).Rect().Contains(local):
			return interaction.Target{Kind: interaction.TargetOutput, Step: v.UUID()}
		case v.Anchor(view.Input).Rect().Contains(local):
			return interaction.Target{Kind: interaction.TargetInput, Step: v.UUID()}
		case v.Bounds().Contains(local):
			return interaction.Target{Kind: interaction.TargetStep, Step: v.UUID()}
		}
	}

	for _, c := range e.pipe.Connections() {
		frame, ok := e.frames[c]
		if ok && frame.Near(local, e.tolerance) {
			return interaction.Target{Kind: interaction.TargetConnection, Connection: c}
		}
	}

	return interaction.Target{Kind: interaction.TargetNone}
}

// SetSurface updates the scroll container geometry, e.g. after a scroll.
func (e *Editor) SetSurface(s geometry.Surface) {
	e.surface = s
}

// Pipeline returns the loaded pipeline, nil before the first Load.
func (e *Editor) Pipeline() *model.Pipeline {
	return e.pipe
}

// State returns the interaction state.
func (e *Editor) State() interaction.State {
	return e.machine.State()
}

// SelectedStep returns the uuid of the selected step, "" when none is.
func (e *Editor) SelectedStep() string {
	return e.selected
}

// Dirty reports whether the pipeline changed since it was loaded or queued for
// saving.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Frames is the current picture of the editor.
type Frames struct {
	Steps       []view.StepFrame       `json:"steps"`
	Connections []view.ConnectionFrame `json:"connections"`
}

// Frames renders every step and returns the last rendered connections,
// followed by the one being drawn if any.
func (e *Editor) Frames() Frames {
	var res Frames
	if e.pipe == nil {
		return res
	}

	for _, step := range e.pipe.Steps() {
		if v, ok := e.steps[step.UUID()]; ok {
			res.Steps = append(res.Steps, v.Render())
		}
	}
	for _, c := range e.pipe.Connections() {
		if frame, ok := e.frames[c]; ok {
			res.Connections = append(res.Connections, frame)
		}
	}
	// The machine drops the transient wrapper on pointer up; its last frame
	// must not outlive it.
	if e.machine.Transient() != nil && e.transient != nil {
		res.Connections = append(res.Connections, *e.transient)
	}

	return res
}

// DrawTo hands the current frames to d. Drawers able to show metrics also get
// the editor measure.
func (e *Editor) DrawTo(d drawer.Drawer) error {
	frames := e.Frames()
	for _, s := range frames.Steps {
		if err := d.AddStep(s); err != nil {
			return errors.Wrapf(err, "unable to draw step %s", s.UUID)
		}
	}
	for _, c := range frames.Connections {
		if err := d.AddConnection(c); err != nil {
			return errors.Wrapf(err, "unable to draw connection %s -> %s", c.From, c.To)
		}
	}

	if md, ok := d.(drawer.MeasureDrawer); ok && e.measure != nil {
		if err := md.AddMeasure(e.measure); err != nil {
			return errors.Wrap(err, "unable to draw measure")
		}
	}

	return nil
}
