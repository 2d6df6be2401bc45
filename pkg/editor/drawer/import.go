package drawer

import (
	"strconv"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

// ParseDOT builds a pipeline from a Graphviz digraph: nodes become steps and
// edges become incoming connections. The node attributes title (or label),
// file_path, hidden and pos ("x,y", optionally pinned with "!") are read;
// everything else is ignored. Edges naming undeclared nodes declare them.
func ParseDOT(src, uuid string) (*model.Pipeline, error) {
	graphAst, err := gographviz.ParseString(src)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDOT, "parse: %s", err)
	}

	collector := newDOTCollector()
	if err := gographviz.Analyse(graphAst, collector); err != nil {
		return nil, errors.Wrapf(ErrInvalidDOT, "analyse: %s", err)
	}

	name := collector.name
	if label, ok := collector.graphAttrs["label"]; ok && name == "" {
		name = label
	}

	pipe := model.New(name, uuid)
	for _, id := range collector.order {
		attrs := collector.nodes[id]

		title := attrs["title"]
		if title == "" && !strings.HasPrefix(attrs["label"], "<") {
			title = attrs["label"]
		}
		if title == "" {
			title = id
		}

		pos, err := parsePos(attrs["pos"])
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", id)
		}

		step := model.NewStep(id, title, attrs["file_path"], model.WithPosition(pos))
		step.MetaData.Hidden = attrs["hidden"] == "true"

		if err := pipe.AddStep(step); err != nil {
			return nil, errors.Wrapf(err, "node %s", id)
		}
	}

	for _, e := range collector.edges {
		if err := pipe.AddConnection(e.from, e.to); err != nil {
			return nil, errors.Wrapf(err, "edge %s -> %s", e.from, e.to)
		}
	}

	return pipe, nil
}

func parsePos(raw string) (geometry.Point, error) {
	if raw == "" {
		return geometry.Point{}, nil
	}

	parts := strings.Split(strings.TrimSuffix(raw, "!"), ",")
	if len(parts) != 2 {
		return geometry.Point{}, errors.Wrapf(ErrInvalidDOT, "pos %q", raw)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point{}, errors.Wrapf(ErrInvalidDOT, "pos %q", raw)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point{}, errors.Wrapf(ErrInvalidDOT, "pos %q", raw)
	}

	return geometry.Pt(x, y), nil
}

type rawEdge struct {
	from, to string
}

// dotCollector implements gographviz.Interface without attribute validation.
type dotCollector struct {
	name       string
	nodes      map[string]map[string]string
	order      []string
	edges      []rawEdge
	graphAttrs map[string]string
}

func newDOTCollector() *dotCollector {
	return &dotCollector{
		nodes:      make(map[string]map[string]string),
		graphAttrs: make(map[string]string),
	}
}

func (c *dotCollector) SetStrict(_ bool) error { return nil }
func (c *dotCollector) SetDir(_ bool) error    { return nil }
func (c *dotCollector) SetName(n string) error { c.name = unquote(n); return nil }
func (c *dotCollector) String() string         { return c.name }

func (c *dotCollector) node(name string) map[string]string {
	id := unquote(name)
	if _, ok := c.nodes[id]; !ok {
		c.nodes[id] = make(map[string]string)
		c.order = append(c.order, id)
	}

	return c.nodes[id]
}

func (c *dotCollector) AddNode(_ string, name string, attrs map[string]string) error {
	node := c.node(name)
	for k, v := range attrs {
		node[k] = unquote(v)
	}

	return nil
}

func (c *dotCollector) AddEdge(src, dst string, _ bool, _ map[string]string) error {
	c.node(src)
	c.node(dst)
	c.edges = append(c.edges, rawEdge{from: unquote(src), to: unquote(dst)})

	return nil
}

func (c *dotCollector) AddPortEdge(src, _, dst, _ string, directed bool, attrs map[string]string) error {
	return c.AddEdge(src, dst, directed, attrs)
}

func (c *dotCollector) AddAttr(_ string, field, value string) error {
	c.graphAttrs[field] = unquote(value)
	return nil
}

func (c *dotCollector) AddSubGraph(_, _ string, _ map[string]string) error { return nil }

// unquote strips surrounding double-quotes from a DOT value and undoes the
// escapes written by the DOT drawer. Other escapes, such as \l, are kept.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}

	inner := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] != '\\' || i+1 == len(inner) {
			b.WriteByte(inner[i])
			continue
		}
		switch next := inner[i+1]; next {
		case '\\', '"':
			b.WriteByte(next)
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
		i++
	}

	return b.String()
}

var _ gographviz.Interface = (*dotCollector)(nil)
