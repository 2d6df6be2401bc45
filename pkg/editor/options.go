package editor

import (
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// Observer is told about what the editor does. OnSaved is called from the
// saver goroutine; every other hook runs on the event goroutine.
type Observer interface {
	// OnLoad reports a loaded pipeline and the connections that had to be
	// dropped from the document.
	OnLoad(pipelineUUID string, dropped []model.Connection)
	// OnStepSelected reports the selected step, or "" when the selection is
	// cleared.
	OnStepSelected(uuid string)
	OnDirty()
	OnSaved(pipelineUUID string, err error)
}

// NopObserver ignores everything. Embed it to implement only some hooks.
type NopObserver struct{}

func (NopObserver) OnLoad(string, []model.Connection) {}
func (NopObserver) OnStepSelected(string)             {}
func (NopObserver) OnDirty()                          {}
func (NopObserver) OnSaved(string, error)             {}

var _ Observer = NopObserver{}

// Option configures an Editor.
type Option func(e *Editor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLayout overrides the node dimensions.
func WithLayout(l view.Layout) Option {
	return func(e *Editor) {
		e.layout = l
	}
}

// WithSurface sets the initial scroll container geometry.
func WithSurface(s geometry.Surface) Option {
	return func(e *Editor) {
		e.surface = s
	}
}

// WithDragThreshold sets the pointer travel above which a press on a step is
// a drag.
func WithDragThreshold(px float64) Option {
	return func(e *Editor) {
		e.threshold = px
	}
}

// WithHitTolerance sets how far from a curve, in local pixels, a pointer still
// hits a connection.
func WithHitTolerance(px float64) Option {
	return func(e *Editor) {
		e.tolerance = px
	}
}

// WithObserver registers the observer.
func WithObserver(o Observer) Option {
	return func(e *Editor) {
		e.observer = o
	}
}

// WithMeasure records backend round trips into m.
func WithMeasure(m measure.Measure) Option {
	return func(e *Editor) {
		e.measure = m
	}
}
