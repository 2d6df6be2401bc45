package drawer

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/pipeline-editor/internal/store"
	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/view"
)

// DOTDrawer writes the step graph as a Graphviz digraph. Each node is pinned at
// its editor position so that `neato -n` reproduces the layout.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	store    *store.OrderedStore[string, string]
	attrs    map[string]string
	settings settings
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer(opts ...Option) *DOTDrawer {
	st := store.NewOrderedStore[string, string]()
	d := &DOTDrawer{
		graph:    graph.NewWithStore(graph.StringHash, graph.Store[string, string](st), graph.Directed()),
		store:    st,
		attrs:    make(map[string]string),
		settings: defaultSettings(),
	}
	for _, opt := range opts {
		opt(&d.settings)
	}

	return d
}

// AddStep adds a step to the graph.
func (d *DOTDrawer) AddStep(frame view.StepFrame) error {
	attrs := []func(*graph.VertexProperties){
		graph.VertexAttribute("title", frame.Title),
		graph.VertexAttribute("pos", formatPos(frame.Bounds.X, frame.Bounds.Y)),
		graph.VertexAttribute("shape", "box"),
		graph.VertexAttribute("style", "rounded,filled"),
		graph.VertexAttribute("fillcolor", d.fill(frame)),
	}
	if frame.FilePath != "" {
		attrs = append(attrs,
			graph.VertexAttribute("file_path", frame.FilePath),
			graph.VertexAttribute("xlabel", frame.FilePath),
		)
	}
	if frame.Hidden {
		attrs = append(attrs, graph.VertexAttribute("hidden", "true"))
	}

	err := d.graph.AddVertex(frame.UUID, attrs...)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

func (d *DOTDrawer) fill(frame view.StepFrame) string {
	if frame.Selected {
		return d.settings.palette.StepSelected
	}

	return d.settings.palette.Step
}

// AddConnection adds an edge. Open connections are not part of the graph and
// are skipped.
func (d *DOTDrawer) AddConnection(frame view.ConnectionFrame) error {
	if frame.Open || frame.To == "" {
		return nil
	}

	colour := d.settings.palette.Connection
	if frame.Selected {
		colour = d.settings.palette.ConnectionSelected
	}

	err := d.graph.AddEdge(frame.From, frame.To, graph.EdgeAttribute("color", colour))
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", frame.From, frame.To)
	}

	return nil
}

// AddMeasure labels the graph with the backend metrics. Operations with
// failures are coloured from blue to red by failure ratio.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	lines := []string{}
	worst := 0.0

	for _, name := range measure.Names(msr) {
		mt := msr.GetMetric(name)
		if mt.Count() == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d calls, %d failed, avg %s",
			name, mt.Count(), mt.Failures(), mt.AVGDuration()))

		ratio := float64(mt.Failures()) / float64(mt.Count())
		if ratio > worst {
			worst = ratio
		}
	}

	if len(lines) == 0 {
		return nil
	}

	red := maxRGB * worst
	blue := -maxRGB*worst + maxRGB

	colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return errors.Wrap(err, "unable to get colour")
	}

	d.attrs["label"] = strings.Join(lines, "\n")
	d.attrs["labelloc"] = "b"
	d.attrs["fontcolor"] = colour.ToHEX().String()

	return nil
}

const maxRGB = 240

// Draw writes the digraph. Nodes and edges come in the order steps and
// connections were added.
func (d *DOTDrawer) Draw(wrt io.Writer) error {
	if err := d.settings.palette.Validate(); err != nil {
		return errors.Wrap(err, "unable to draw dot")
	}

	doc, err := d.document()
	if err != nil {
		return errors.Wrap(err, "unable to create dot graph")
	}

	if err := dotTemplate.Execute(wrt, doc); err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

func formatPos(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "," + strconv.FormatFloat(y, 'f', -1, 64) + "!"
}

var dotTemplate = template.Must(template.New("dot").Parse(`strict digraph {
{{- range .Graph}}
	{{.}};
{{- end}}
{{- range .Nodes}}
	"{{.ID}}" [ {{.Attrs}} ];
{{- end}}
{{- range .Edges}}
	"{{.From}}" -> "{{.To}}" [ {{.Attrs}} ];
{{- end}}
}
`))

type dotNode struct {
	ID    string
	Attrs string
}

type dotEdge struct {
	From, To string
	Attrs    string
}

type dotDocument struct {
	Graph []string
	Nodes []dotNode
	Edges []dotEdge
}

func (d *DOTDrawer) document() (dotDocument, error) {
	graphAttrs := map[string]string{"bgcolor": d.settings.palette.Background}
	for k, v := range d.attrs {
		graphAttrs[k] = v
	}

	doc := dotDocument{Graph: attrPairs(graphAttrs)}

	ids, err := d.store.ListVertices()
	if err != nil {
		return doc, errors.Wrap(err, "unable to list vertices")
	}

	for _, id := range ids {
		_, props, err := d.graph.VertexWithProperties(id)
		if err != nil {
			return doc, errors.Wrapf(err, "unable to get vertex %s", id)
		}
		attrs := make(map[string]string, len(props.Attributes))
		for k, v := range props.Attributes {
			attrs[k] = v
		}

		// A file path goes under the title in an HTML label.
		label := `label="` + escape(attrs["title"]) + `"`
		if xlabel, ok := attrs["xlabel"]; ok {
			label = fmt.Sprintf(`label=<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`,
				html.EscapeString(attrs["title"]), html.EscapeString(xlabel))
			delete(attrs, "xlabel")
		}
		doc.Nodes = append(doc.Nodes, dotNode{ID: escape(id), Attrs: formatAttrs(attrs, []string{label})})

		for _, target := range d.store.Successors(id) {
			edge, err := d.graph.Edge(id, target)
			if err != nil {
				return doc, errors.Wrapf(err, "unable to get edge %s -> %s", id, target)
			}
			doc.Edges = append(doc.Edges, dotEdge{
				From:  escape(id),
				To:    escape(target),
				Attrs: formatAttrs(edge.Properties.Attributes, nil),
			})
		}
	}

	return doc, nil
}

// attrPairs returns key="value" pairs sorted by key.
func attrPairs(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+`="`+escape(attrs[k])+`"`)
	}

	return pairs
}

// formatAttrs writes an attribute list, the raw pairs in first coming first.
func formatAttrs(attrs map[string]string, first []string) string {
	return strings.Join(append(first, attrPairs(attrs)...), ", ")
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// escape makes s safe inside a double-quoted DOT string.
func escape(s string) string {
	return dotEscaper.Replace(s)
}

var _ MeasureDrawer = (*DOTDrawer)(nil)
