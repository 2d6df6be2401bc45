package interaction

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// State is the gesture the machine is in.
type State int

const (
	Idle State = iota
	DraggingStep
	DrawingConnection
	ConnectionSelected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingStep:
		return "dragging_step"
	case DrawingConnection:
		return "drawing_connection"
	case ConnectionSelected:
		return "connection_selected"
	default:
		return "unknown"
	}
}

// Scene is what the machine drives: the wrapper collections and the model
// behind them.
type Scene interface {
	StepView(uuid string) (*view.StepView, bool)
	ConnectionView(key model.Connection) (*view.ConnectionView, bool)
	// NewConnection returns a transient open connection, not part of the
	// scene's collection.
	NewConnection(start view.Anchor) *view.ConnectionView
	RenderConnection(c *view.ConnectionView)
	RenderConnections()
	ToLocal(p geometry.Point) geometry.Point
	// Connect adds the connection to the model and its wrapper to the scene.
	Connect(from, to string) error
	// Disconnect removes the connection from the model and the scene.
	Disconnect(key model.Connection) error
	SelectStep(uuid string)
}

// Option configures a Machine.
type Option func(m *Machine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithDragThreshold sets the pointer travel, in viewport pixels, above which a
// press on a step is a drag rather than a click. The default is 0: any
// movement is a drag.
func WithDragThreshold(px float64) Option {
	return func(m *Machine) {
		m.threshold = px
	}
}

// Machine interprets pointer and keyboard events.
type Machine struct {
	scene     Scene
	logger    *zap.Logger
	threshold float64
	state     State

	dragging  *view.StepView
	last      geometry.Point
	travel    float64
	transient *view.ConnectionView
	selected  *view.ConnectionView
}

// NewMachine returns an idle machine driving scene.
func NewMachine(scene Scene, opts ...Option) *Machine {
	m := &Machine{
		scene:  scene,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Transient returns the connection being drawn, if any.
func (m *Machine) Transient() *view.ConnectionView {
	return m.transient
}

// Selected returns the selected connection, if any.
func (m *Machine) Selected() *view.ConnectionView {
	return m.selected
}

// Reset drops any gesture in progress and any selection.
func (m *Machine) Reset() {
	if m.dragging != nil {
		m.dragging.Dragged = false
	}
	m.deselect()
	m.dragging = nil
	m.transient = nil
	m.travel = 0
	m.state = Idle
}

// Handle processes one event. Errors only come from the scene; the machine
// is back in a consistent state when Handle returns.
func (m *Machine) Handle(ev Event) error {
	switch ev.Type {
	case PointerDown:
		return m.pointerDown(ev)
	case PointerMove:
		m.pointerMove(ev)
		return nil
	case PointerUp:
		return m.pointerUp(ev)
	case KeyDown:
		return m.keyDown(ev)
	default:
		return nil
	}
}

func (m *Machine) pointerDown(ev Event) error {
	if m.state == DraggingStep || m.state == DrawingConnection {
		m.logger.Debug("pointer down during a gesture ignored", zap.Stringer("state", m.state))
		return nil
	}

	switch ev.Target.Kind {
	case TargetStep:
		step, ok := m.scene.StepView(ev.Target.Step)
		if !ok {
			return errors.Wrapf(model.ErrStepNotFound, "pointer down on %s", ev.Target.Step)
		}
		m.deselect()
		step.Dragged = true
		m.dragging = step
		m.last = ev.Point
		m.travel = 0
		m.state = DraggingStep
	case TargetOutput:
		step, ok := m.scene.StepView(ev.Target.Step)
		if !ok {
			return errors.Wrapf(model.ErrStepNotFound, "pointer down on output of %s", ev.Target.Step)
		}
		m.deselect()
		m.transient = m.scene.NewConnection(step.Anchor(view.Output))
		m.transient.Track(m.scene.ToLocal(ev.Point))
		m.scene.RenderConnection(m.transient)
		m.state = DrawingConnection
	case TargetConnection:
		conn, ok := m.scene.ConnectionView(ev.Target.Connection)
		if !ok {
			m.deselect()
			m.state = Idle
			return nil
		}
		m.deselect()
		conn.Selected = true
		m.selected = conn
		m.scene.RenderConnection(conn)
		m.state = ConnectionSelected
	default:
		m.deselect()
		m.state = Idle
	}

	return nil
}

func (m *Machine) pointerMove(ev Event) {
	switch m.state {
	case DraggingStep:
		delta := m.scene.ToLocal(ev.Point).Sub(m.scene.ToLocal(m.last))
		m.travel += geometry.Dist(ev.Point, m.last)
		m.last = ev.Point
		m.dragging.MoveBy(delta)
		m.scene.RenderConnections()
	case DrawingConnection:
		m.transient.Track(m.scene.ToLocal(ev.Point))
		m.scene.RenderConnection(m.transient)
	default:
	}
}

func (m *Machine) pointerUp(ev Event) error {
	switch m.state {
	case DraggingStep:
		step := m.dragging
		m.dragging = nil
		m.state = Idle

		if m.travel > m.threshold {
			m.logger.Debug("step dragged",
				zap.String("step", step.UUID()),
				zap.Float64("x", step.X),
				zap.Float64("y", step.Y),
			)

			return step.Commit()
		}

		// A click: drop any movement below the threshold.
		step.Dragged = false
		step.Sync()
		m.scene.RenderConnections()
		m.scene.SelectStep(step.UUID())
	case DrawingConnection:
		conn := m.transient
		m.transient = nil
		m.state = Idle

		from := conn.Start.Step.UUID()
		if ev.Target.Kind != TargetInput {
			m.logger.Debug("connection dropped outside an input", zap.String("from", from))
			return nil
		}
		if err := m.scene.Connect(from, ev.Target.Step); err != nil {
			m.logger.Debug("connection discarded",
				zap.String("from", from),
				zap.String("to", ev.Target.Step),
				zap.Error(err),
			)
		}
	default:
	}

	return nil
}

func (m *Machine) keyDown(ev Event) error {
	if m.state != ConnectionSelected {
		return nil
	}

	switch ev.Key {
	case KeyEscape:
		m.deselect()
		m.state = Idle
	case KeyBackspace, KeyDelete:
		conn := m.selected
		m.selected = nil
		m.state = Idle

		key, ok := conn.Key()
		if !ok {
			return nil
		}
		if err := m.scene.Disconnect(key); err != nil {
			return errors.Wrapf(err, "unable to remove connection %s -> %s", key.From, key.To)
		}
	default:
	}

	return nil
}

func (m *Machine) deselect() {
	if m.selected == nil {
		return
	}
	m.selected.Selected = false
	m.scene.RenderConnection(m.selected)
	m.selected = nil
}

// Forget drops the selection if it is conn. The scene calls it when it
// removes a wrapper behind the machine's back.
func (m *Machine) Forget(conn *view.ConnectionView) {
	if m.selected != conn {
		return
	}
	m.selected = nil
	if m.state == ConnectionSelected {
		m.state = Idle
	}
}

// ForgetStep drops the gesture in progress when it involves the step uuid:
// a drag of that step or a connection drawn from it.
func (m *Machine) ForgetStep(uuid string) {
	switch m.state {
	case DraggingStep:
		if m.dragging.UUID() != uuid {
			return
		}
		m.dragging = nil
	case DrawingConnection:
		if !m.transient.Touches(uuid) {
			return
		}
		m.transient = nil
	default:
		return
	}

	m.travel = 0
	m.state = Idle
}
