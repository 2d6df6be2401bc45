package interaction

import (
	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

// EventType names a pointer or keyboard event.
type EventType string

const (
	PointerDown EventType = "pointerdown"
	PointerMove EventType = "pointermove"
	PointerUp   EventType = "pointerup"
	KeyDown     EventType = "keydown"
)

// Key names the keys the editor reacts to.
const (
	KeyEscape    = "Escape"
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
)

// TargetKind is what lies under the pointer.
type TargetKind string

const (
	TargetNone       TargetKind = "none"
	TargetStep       TargetKind = "step"
	TargetOutput     TargetKind = "output"
	TargetInput      TargetKind = "input"
	TargetConnection TargetKind = "connection"
)

// Target is the element an event happened on. Step is set for step and anchor
// targets, Connection for connection targets.
type Target struct {
	Kind       TargetKind       `json:"kind"`
	Step       string           `json:"step,omitempty"`
	Connection model.Connection `json:"connection"`
}

// Event is a pointer or keyboard event. Point is in viewport coordinates.
type Event struct {
	Type   EventType      `json:"type"`
	Point  geometry.Point `json:"point"`
	Target Target         `json:"target"`
	Key    string         `json:"key,omitempty"`
}
