package drawer_test

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

type frames struct {
	steps       []view.StepFrame
	connections []view.ConnectionFrame
}

func sampleFrames(t *testing.T) frames {
	t.Helper()

	pipe := model.New("etl", "p-1")
	require.NoError(t, pipe.AddStep(model.NewStep("extract", `Extract "raw"`, "extract.py", model.WithPosition(geometry.Pt(0, 0)))))
	require.NoError(t, pipe.AddStep(model.NewStep("load", "Load & store", "load.ipynb", model.WithPosition(geometry.Pt(300, 150)))))
	require.NoError(t, pipe.AddStep(model.NewStep("report", "Report", "", model.WithPosition(geometry.Pt(600, 0)))))
	require.NoError(t, pipe.AddConnection("extract", "load"))
	require.NoError(t, pipe.AddConnection("load", "report"))

	views := map[string]*view.StepView{}
	var res frames
	for _, step := range pipe.Steps() {
		views[step.UUID()] = view.NewStepView(pipe, step)
		res.steps = append(res.steps, views[step.UUID()].Render())
	}
	for _, c := range pipe.Connections() {
		conn := view.NewConnectionView(views[c.From].Anchor(view.Output), view.DefaultLayout())
		conn.Attach(views[c.To].Anchor(view.Input))
		res.connections = append(res.connections, conn.Render())
	}

	open := view.NewConnectionView(views["report"].Anchor(view.Output), view.DefaultLayout())
	open.Track(geometry.Pt(900, 300))
	res.connections = append(res.connections, open.Render())

	return res
}

func fill(t *testing.T, d drawer.Drawer, f frames) {
	t.Helper()

	for _, s := range f.steps {
		require.NoError(t, d.AddStep(s))
	}
	for _, c := range f.connections {
		require.NoError(t, d.AddConnection(c))
	}
}

func TestSVGDrawer(t *testing.T) {
	t.Parallel()

	f := sampleFrames(t)
	d := drawer.NewSVGDrawer(drawer.WithMargin(10))
	fill(t, d, f)

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Equal(t, 3, strings.Count(out, "<path"))
	assert.Equal(t, 3, strings.Count(out, `class="step`))
	assert.Contains(t, out, `data-from="extract" data-to="load"`)
	assert.Contains(t, out, "Extract &#34;raw&#34;")
	assert.Contains(t, out, "Load &amp; store")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, f.connections[0].Transform)
	assert.Contains(t, out, `viewBox="-18 -10 933 325"`)
}

func TestSVGDrawerHiddenStep(t *testing.T) {
	t.Parallel()

	f := sampleFrames(t)
	f.steps[2].Hidden = true
	d := drawer.NewSVGDrawer()
	fill(t, d, f)

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	assert.Equal(t, 2, strings.Count(buf.String(), `class="step`))
}

func TestDOTDrawerRoundTrip(t *testing.T) {
	t.Parallel()

	f := sampleFrames(t)
	d := drawer.NewDOTDrawer()
	fill(t, d, f)

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	assert.Contains(t, out, `"extract" -> "load"`)
	assert.Contains(t, out, `pos="300,150!"`)
	assert.NotContains(t, out, `"report" -> ""`)

	pipe, err := drawer.ParseDOT(out, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "p-2", pipe.UUID())
	assert.Equal(t, 3, pipe.Len())
	assert.ElementsMatch(t, []model.Connection{
		{From: "extract", To: "load"},
		{From: "load", To: "report"},
	}, pipe.Connections())

	extract, ok := pipe.Step("extract")
	require.True(t, ok)
	assert.Equal(t, `Extract "raw"`, extract.Title)
	assert.Equal(t, "extract.py", extract.FilePath)

	load, _ := pipe.Step("load")
	assert.Equal(t, geometry.Pt(300, 150), load.Position())

	report, _ := pipe.Step("report")
	assert.Equal(t, "Report", report.Title)
	assert.Empty(t, report.FilePath)
}

func TestDOTDrawerEscapesQuotedStrings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		uuid     string
		title    string
		filePath string
	}{
		"trailing backslash":  {uuid: "win", title: `C:\dir\`, filePath: `C:\dir\run.py`},
		"backslash in id":     {uuid: `step\1`, title: "Step", filePath: ""},
		"escaped quote":       {uuid: "q", title: `say \"hi\"`, filePath: ""},
		"backslash then n":    {uuid: "n", title: `line\nbreak`, filePath: ""},
		"newline in the name": {uuid: "nl", title: "two\nlines", filePath: ""},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := drawer.NewDOTDrawer()
			require.NoError(t, d.AddStep(view.StepFrame{UUID: tc.uuid, Title: tc.title, FilePath: tc.filePath}))
			require.NoError(t, d.AddStep(view.StepFrame{UUID: "next", Title: "Next"}))
			require.NoError(t, d.AddConnection(view.ConnectionFrame{From: tc.uuid, To: "next"}))

			var buf bytes.Buffer
			require.NoError(t, d.Draw(&buf))

			pipe, err := drawer.ParseDOT(buf.String(), "p")
			require.NoError(t, err)

			step, ok := pipe.Step(tc.uuid)
			require.True(t, ok)
			assert.Equal(t, tc.title, step.Title)
			assert.Equal(t, tc.filePath, step.FilePath)
			assert.Equal(t, []model.Connection{{From: tc.uuid, To: "next"}}, pipe.Connections())
		})
	}
}

func TestDOTDrawerKeepsStepOrder(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer()
	require.NoError(t, d.AddStep(view.StepFrame{UUID: "zeta", Title: "Z"}))
	require.NoError(t, d.AddStep(view.StepFrame{UUID: "alpha", Title: "A"}))
	require.NoError(t, d.AddStep(view.StepFrame{UUID: "mid", Title: "M"}))
	require.NoError(t, d.AddConnection(view.ConnectionFrame{From: "zeta", To: "mid"}))
	require.NoError(t, d.AddConnection(view.ConnectionFrame{From: "zeta", To: "alpha"}))

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.Less(t, strings.Index(out, `"zeta" [`), strings.Index(out, `"alpha" [`))
	assert.Less(t, strings.Index(out, `"alpha" [`), strings.Index(out, `"mid" [`))
	assert.Less(t, strings.Index(out, `"zeta" -> "mid"`), strings.Index(out, `"zeta" -> "alpha"`))
	assert.Contains(t, out, `"alpha" [ label="A", `)
}

func TestDOTDrawerErrors(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer()
	require.NoError(t, d.AddStep(view.StepFrame{UUID: "a"}))
	assert.Error(t, d.AddStep(view.StepFrame{UUID: "a"}))
	assert.Error(t, d.AddConnection(view.ConnectionFrame{From: "a", To: "ghost"}))
}

func TestDOTDrawerMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	msr.GetMetric("load").AddDuration(10 * time.Millisecond)
	msr.GetMetric("save").AddFailure(20 * time.Millisecond)
	msr.AddMetric("unused")

	d := drawer.NewDOTDrawer()
	require.NoError(t, d.AddMeasure(msr))

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.Contains(t, out, `label="load: 1 calls, 0 failed, avg 10ms\nsave: 1 calls, 1 failed, avg 20ms"`)
	red, err := colors.RGB(240, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, out, `fontcolor="`+red.ToHEX().String()+`"`)
	assert.NotContains(t, out, "unused")
}

func TestParseDOT(t *testing.T) {
	t.Parallel()

	src := `digraph etl {
		a [label="First", pos="10,20"];
		b [file_path="b.py", hidden="true"];
		a -> b -> c;
		a -> c;
	}`

	pipe, err := drawer.ParseDOT(src, "p")
	require.NoError(t, err)
	assert.Equal(t, "etl", pipe.Name())

	a, _ := pipe.Step("a")
	assert.Equal(t, "First", a.Title)
	assert.Equal(t, geometry.Pt(10, 20), a.Position())

	b, _ := pipe.Step("b")
	assert.Equal(t, "b", b.Title)
	assert.True(t, b.MetaData.Hidden)

	c, ok := pipe.Step("c")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, c.IncomingConnections())
	assert.Equal(t, []string{"b", "c"}, a.OutgoingConnections())
}

func TestParseDOTErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src string
	}{
		"syntax":    {src: `digraph {`},
		"bad pos":   {src: `digraph { a [pos="x,1"]; }`},
		"short pos": {src: `digraph { a [pos="1"]; }`},
		"self loop": {src: `digraph { a -> a; }`},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := drawer.ParseDOT(tc.src, "p")
			assert.Error(t, err)
		})
	}
}

func TestPNGDrawer(t *testing.T) {
	t.Parallel()

	f := sampleFrames(t)
	d := drawer.NewPNGDrawer(drawer.WithScale(2), drawer.WithMargin(10))
	fill(t, d, f)

	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1866, img.Bounds().Dx())
	assert.Equal(t, 650, img.Bounds().Dy())
}

func TestPaletteValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, drawer.DefaultPalette().Validate())

	p := drawer.DefaultPalette()
	p.Connection = "blue"
	assert.ErrorIs(t, p.Validate(), drawer.ErrInvalidColour)

	for _, d := range []drawer.Drawer{
		drawer.NewSVGDrawer(drawer.WithPalette(p)),
		drawer.NewDOTDrawer(drawer.WithPalette(p)),
		drawer.NewPNGDrawer(drawer.WithPalette(p)),
	} {
		assert.ErrorIs(t, d.Draw(&bytes.Buffer{}), drawer.ErrInvalidColour)
	}
}
