package model

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
)

// Position is a step's [x, y] location in the editor's local coordinates.
type Position [2]float64

// Point converts p to a geometry point.
func (p Position) Point() geometry.Point {
	return geometry.Pt(p[0], p[1])
}

// PositionOf converts a geometry point to a Position.
func PositionOf(pt geometry.Point) Position {
	return Position{pt.X, pt.Y}
}

// MetaData holds the editor-owned part of a step.
type MetaData struct {
	Position Position `json:"position"`
	Hidden   bool     `json:"hidden"`
}

// Step is a node of the pipeline graph.
//
// The uuid and the incoming connections can only be changed through a
// Pipeline. Title, FilePath and MetaData are plain fields.
type Step struct {
	Title    string
	FilePath string
	MetaData MetaData

	uuid     string
	incoming []string
	outgoing []string
	// raw is the step as last read from the wire; unknown keys survive in it.
	raw []byte
}

// StepOption configures a new step.
type StepOption func(s *Step)

// WithIncoming sets the steps feeding the new step.
func WithIncoming(uuids ...string) StepOption {
	return func(s *Step) {
		s.incoming = append([]string(nil), uuids...)
	}
}

// WithPosition sets the initial position.
func WithPosition(pt geometry.Point) StepOption {
	return func(s *Step) {
		s.MetaData.Position = PositionOf(pt)
	}
}

// NewStep creates a detached step. It becomes part of a graph once passed to
// Pipeline.AddStep.
func NewStep(uuid, title, filePath string, opts ...StepOption) *Step {
	step := &Step{
		uuid:     uuid,
		Title:    title,
		FilePath: filePath,
		incoming: []string{},
	}
	for _, opt := range opts {
		opt(step)
	}

	return step
}

// UUID returns the step identity.
func (s *Step) UUID() string {
	return s.uuid
}

// Position returns the persisted position as a point.
func (s *Step) Position() geometry.Point {
	return s.MetaData.Position.Point()
}

// IncomingConnections returns a copy of the uuids feeding s, in order.
func (s *Step) IncomingConnections() []string {
	res := make([]string, len(s.incoming))
	copy(res, s.incoming)

	return res
}

// OutgoingConnections returns a copy of the uuids s feeds. The list is derived
// from every step's incoming connections by the owning pipeline.
func (s *Step) OutgoingConnections() []string {
	res := make([]string, len(s.outgoing))
	copy(res, s.outgoing)

	return res
}

// Opaque reads a field the editor does not model, e.g. "kernel.name".
func (s *Step) Opaque(path string) gjson.Result {
	return gjson.GetBytes(s.raw, path)
}

// SetOpaque writes a field the editor does not model.
func (s *Step) SetOpaque(path string, value any) error {
	raw, err := sjson.SetBytes(s.rawOrEmpty(), path, value)
	if err != nil {
		return errors.Wrapf(err, "unable to set %s", path)
	}
	s.raw = raw

	return nil
}

func (s *Step) hasIncoming(uuid string) bool {
	for _, in := range s.incoming {
		if in == uuid {
			return true
		}
	}

	return false
}

func (s *Step) removeIncoming(uuid string) bool {
	for i, in := range s.incoming {
		if in == uuid {
			s.incoming = append(s.incoming[:i:i], s.incoming[i+1:]...)
			return true
		}
	}

	return false
}

func (s *Step) rawOrEmpty() []byte {
	if len(s.raw) == 0 {
		return []byte("{}")
	}

	return s.raw
}

func (s *Step) clone() *Step {
	cp := *s
	cp.incoming = s.IncomingConnections()
	cp.outgoing = s.OutgoingConnections()
	cp.raw = append([]byte(nil), s.raw...)

	return &cp
}

type wireStep struct {
	UUID     string   `json:"uuid"`
	Title    string   `json:"title"`
	FilePath string   `json:"file_path"`
	Incoming []string `json:"incoming_connections"`
	MetaData MetaData `json:"meta_data"`
}

// UnmarshalJSON reads the known fields and keeps the whole object for the
// opaque ones. outgoing_connections is never trusted.
func (s *Step) UnmarshalJSON(data []byte) error {
	var wire wireStep
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.Wrap(ErrInvalidJSON, err.Error())
	}

	s.uuid = wire.UUID
	s.Title = wire.Title
	s.FilePath = wire.FilePath
	s.MetaData = wire.MetaData
	s.incoming = wire.Incoming
	if s.incoming == nil {
		s.incoming = []string{}
	}
	s.outgoing = nil
	s.raw = append([]byte(nil), data...)

	return nil
}

// MarshalJSON writes the known fields over the raw object, so unknown fields
// keep their value and position.
func (s *Step) MarshalJSON() ([]byte, error) {
	out := append([]byte(nil), s.rawOrEmpty()...)

	incoming := s.incoming
	if incoming == nil {
		incoming = []string{}
	}

	fields := []struct {
		path  string
		value any
	}{
		{"uuid", s.uuid},
		{"title", s.Title},
		{"file_path", s.FilePath},
		{"incoming_connections", incoming},
		{"meta_data.position", s.MetaData.Position},
		{"meta_data.hidden", s.MetaData.Hidden},
	}

	var err error
	for _, f := range fields {
		out, err = sjson.SetBytes(out, f.path, f.value)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to write %s of step %s", f.path, s.uuid)
		}
	}

	out, err = sjson.DeleteBytes(out, "outgoing_connections")
	if err != nil {
		return nil, errors.Wrapf(err, "unable to drop outgoing connections of step %s", s.uuid)
	}

	return out, nil
}
