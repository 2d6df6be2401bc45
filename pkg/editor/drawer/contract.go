package drawer

import (
	"io"

	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// Drawer is an interface that defines the methods for exporting an editor scene.
type Drawer interface {
	// AddStep adds a rendered step.
	AddStep(frame view.StepFrame) error
	// AddConnection adds a rendered connection. Open connections may be ignored.
	AddConnection(frame view.ConnectionFrame) error
	// Draw writes the scene to wrt.
	Draw(wrt io.Writer) error
}

// MeasureDrawer is a drawer able to annotate the scene with backend metrics.
type MeasureDrawer interface {
	Drawer
	// AddMeasure adds a measure to the drawer.
	AddMeasure(msr measure.Measure) error
}
