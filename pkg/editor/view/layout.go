// Package view holds the per-step and per-connection presentation state of the
// editor. Wrappers keep transient screen state (position while dragging,
// selection, the open end of a connection being drawn) on top of the model and
// render it into immutable frames.
package view

import "strconv"

// Layout holds the node and curve dimensions, in local pixels.
type Layout struct {
	StepWidth  float64 `json:"step_width"  mapstructure:"step_width"`
	StepHeight float64 `json:"step_height" mapstructure:"step_height"`
	AnchorSize float64 `json:"anchor_size" mapstructure:"anchor_size"`
	// Padding is the room left around a connection curve inside its SVG box.
	Padding float64 `json:"padding" mapstructure:"padding"`
}

// DefaultLayout returns the stock editor dimensions.
func DefaultLayout() Layout {
	return Layout{
		StepWidth:  190,
		StepHeight: 100,
		AnchorSize: 16,
		Padding:    5,
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
