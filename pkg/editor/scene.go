package editor

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/interaction"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// scene is the editor as seen by the interaction machine.
type scene Editor

func (s *scene) StepView(uuid string) (*view.StepView, bool) {
	v, ok := s.steps[uuid]
	return v, ok
}

func (s *scene) ConnectionView(key model.Connection) (*view.ConnectionView, bool) {
	c, ok := s.conns[key]
	return c, ok
}

func (s *scene) NewConnection(start view.Anchor) *view.ConnectionView {
	return view.NewConnectionView(start, s.layout)
}

func (s *scene) RenderConnection(c *view.ConnectionView) {
	frame := c.Render()
	if key, ok := c.Key(); ok {
		if _, known := s.conns[key]; known {
			s.frames[key] = frame
		}
		return
	}
	s.transient = &frame
}

func (s *scene) RenderConnections() {
	for key, c := range s.conns {
		s.frames[key] = c.Render()
	}
}

func (s *scene) ToLocal(p geometry.Point) geometry.Point {
	return s.surface.ToLocal(p)
}

func (s *scene) Connect(from, to string) error {
	e := (*Editor)(s)

	if s.pipe.HasConnection(from, to) {
		return nil
	}
	if err := s.pipe.AddConnection(from, to); err != nil {
		return errors.Wrap(err, "unable to connect steps")
	}

	key := model.Connection{From: from, To: to}
	if _, err := e.addConnectionView(key); err != nil {
		s.pipe.RemoveConnection(from, to)
		return err
	}
	e.markDirty()

	s.logger.Debug("steps connected", zap.String("from", from), zap.String("to", to))

	return nil
}

func (s *scene) Disconnect(key model.Connection) error {
	if !s.pipe.RemoveConnection(key.From, key.To) {
		return errors.Wrapf(model.ErrStepNotFound, "connection %s -> %s", key.From, key.To)
	}
	delete(s.conns, key)
	delete(s.frames, key)
	(*Editor)(s).markDirty()

	s.logger.Debug("steps disconnected", zap.String("from", key.From), zap.String("to", key.To))

	return nil
}

func (s *scene) SelectStep(uuid string) {
	for id, v := range s.steps {
		v.Selected = id == uuid
	}
	s.selected = uuid
	s.observer.OnStepSelected(uuid)
}

var _ interaction.Scene = (*scene)(nil)
