package model

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/pipeline-editor/internal/store"
	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
)

// Connection is a directed edge identified by its ordered (From, To) pair.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Pipeline owns the steps of one pipeline and keeps their derived outgoing
// connections consistent with the incoming ones.
type Pipeline struct {
	name  string
	uuid  string
	steps map[string]*Step
	order []string
	raw   []byte
}

// New creates an empty pipeline.
func New(name, uuid string) *Pipeline {
	return &Pipeline{
		name:  name,
		uuid:  uuid,
		steps: make(map[string]*Step),
	}
}

// Name returns the pipeline display name.
func (p *Pipeline) Name() string { return p.name }

// UUID returns the pipeline identity.
func (p *Pipeline) UUID() string { return p.uuid }

// SetName renames the pipeline.
func (p *Pipeline) SetName(name string) { p.name = name }

// Len is the number of steps.
func (p *Pipeline) Len() int { return len(p.order) }

// Step looks a step up by uuid.
func (p *Pipeline) Step(uuid string) (*Step, bool) {
	step, ok := p.steps[uuid]
	return step, ok
}

// Steps lists the steps in insertion order.
func (p *Pipeline) Steps() []*Step {
	res := make([]*Step, 0, len(p.order))
	for _, id := range p.order {
		res = append(res, p.steps[id])
	}

	return res
}

// Connections lists every connection, grouped by target step in step order
// and then in incoming_connections order.
func (p *Pipeline) Connections() []Connection {
	var res []Connection
	for _, id := range p.order {
		for _, in := range p.steps[id].incoming {
			res = append(res, Connection{From: in, To: id})
		}
	}

	return res
}

// HasConnection reports whether from feeds to.
func (p *Pipeline) HasConnection(from, to string) bool {
	step, ok := p.steps[to]
	return ok && step.hasIncoming(from)
}

// AddStep inserts step. Its incoming connections must reference steps that
// are already part of the pipeline.
func (p *Pipeline) AddStep(step *Step) error {
	if step == nil || step.uuid == "" {
		return ErrEmptyUUID
	}
	if _, ok := p.steps[step.uuid]; ok {
		return errors.Wrapf(ErrDuplicateStep, "uuid %s", step.uuid)
	}

	incoming := make([]string, 0, len(step.incoming))
	for _, in := range step.incoming {
		if in == step.uuid {
			return errors.Wrapf(ErrSelfConnection, "step %s", step.uuid)
		}
		if _, ok := p.steps[in]; !ok {
			return errors.Wrapf(ErrStepNotFound, "incoming connection %s of step %s", in, step.uuid)
		}
		if !contains(incoming, in) {
			incoming = append(incoming, in)
		}
	}
	step.incoming = incoming

	p.steps[step.uuid] = step
	p.order = append(p.order, step.uuid)
	p.DeriveOutgoing()

	return nil
}

// RemoveStep deletes a step and every connection touching it. It returns the
// removed connections so that the caller can drop their visual counterparts.
func (p *Pipeline) RemoveStep(uuid string) ([]Connection, error) {
	step, ok := p.steps[uuid]
	if !ok {
		return nil, errors.Wrapf(ErrStepNotFound, "uuid %s", uuid)
	}

	var removed []Connection
	for _, in := range step.incoming {
		removed = append(removed, Connection{From: in, To: uuid})
	}
	for _, id := range p.order {
		if p.steps[id].removeIncoming(uuid) {
			removed = append(removed, Connection{From: uuid, To: id})
		}
	}

	delete(p.steps, uuid)
	p.order = removeString(p.order, uuid)
	p.DeriveOutgoing()

	return removed, nil
}

// AddConnection makes from feed to. Adding an existing connection is a no-op.
func (p *Pipeline) AddConnection(from, to string) error {
	if from == to {
		return errors.Wrapf(ErrSelfConnection, "step %s", from)
	}
	if _, ok := p.steps[from]; !ok {
		return errors.Wrapf(ErrStepNotFound, "uuid %s", from)
	}
	target, ok := p.steps[to]
	if !ok {
		return errors.Wrapf(ErrStepNotFound, "uuid %s", to)
	}
	if target.hasIncoming(from) {
		return nil
	}

	target.incoming = append(target.incoming, from)
	p.DeriveOutgoing()

	return nil
}

// RemoveConnection deletes the connection from -> to. It reports whether the
// connection existed.
func (p *Pipeline) RemoveConnection(from, to string) bool {
	target, ok := p.steps[to]
	if !ok || !target.removeIncoming(from) {
		return false
	}
	p.DeriveOutgoing()

	return true
}

// SetPosition persists a step position.
func (p *Pipeline) SetPosition(uuid string, pt geometry.Point) error {
	step, ok := p.steps[uuid]
	if !ok {
		return errors.Wrapf(ErrStepNotFound, "uuid %s", uuid)
	}
	step.MetaData.Position = PositionOf(pt)

	return nil
}

// DeriveOutgoing recomputes every step's outgoing connections from scratch.
// Every mutating method calls it before returning.
func (p *Pipeline) DeriveOutgoing() {
	_, st := p.build()
	for _, id := range p.order {
		p.steps[id].outgoing = st.Successors(id)
	}
}

// Graph returns the step graph, edges pointing from a step to the steps it
// feeds.
func (p *Pipeline) Graph() graph.Graph[string, *Step] {
	g, _ := p.build()
	return g
}

func stepHash(s *Step) string {
	return s.uuid
}

// build can't fail: uuids are unique and every incoming uuid names a step of
// the pipeline, both enforced by the mutating methods.
func (p *Pipeline) build() (graph.Graph[string, *Step], *store.OrderedStore[string, *Step]) {
	st := store.NewOrderedStore[string, *Step]()
	g := graph.NewWithStore(stepHash, graph.Store[string, *Step](st), graph.Directed())

	for _, id := range p.order {
		_ = g.AddVertex(p.steps[id])
	}
	for _, id := range p.order {
		for _, in := range p.steps[id].incoming {
			_ = g.AddEdge(in, id)
		}
	}

	return g, st
}

// Serialize produces an independent document from the pipeline.
func (p *Pipeline) Serialize() *Document {
	doc := &Document{
		Name:  p.name,
		UUID:  p.uuid,
		Steps: make(map[string]*Step, len(p.steps)),
		order: append([]string(nil), p.order...),
		raw:   append([]byte(nil), p.raw...),
	}
	for id, step := range p.steps {
		doc.Steps[id] = step.clone()
	}

	return doc
}

// Deserialize builds a pipeline from doc. Self references and references to
// unknown steps can't be represented and are dropped; they are returned so the
// caller can report them.
func Deserialize(doc *Document) (*Pipeline, []Connection, error) {
	if doc == nil {
		return nil, nil, errors.Wrap(ErrInvalidJSON, "nil document")
	}

	pipe := New(doc.Name, doc.UUID)
	pipe.raw = append([]byte(nil), doc.raw...)

	for _, key := range doc.StepOrder() {
		step := doc.Steps[key].clone()
		if step.uuid == "" {
			step.uuid = key
		}
		if step.uuid != key {
			return nil, nil, errors.Wrapf(ErrKeyMismatch, "key %s, uuid %s", key, step.uuid)
		}
		pipe.steps[step.uuid] = step
		pipe.order = append(pipe.order, step.uuid)
	}

	var dropped []Connection
	for _, id := range pipe.order {
		step := pipe.steps[id]
		kept := make([]string, 0, len(step.incoming))
		for _, in := range step.incoming {
			_, known := pipe.steps[in]
			if in == id || !known || contains(kept, in) {
				dropped = append(dropped, Connection{From: in, To: id})
				continue
			}
			kept = append(kept, in)
		}
		step.incoming = kept
	}

	pipe.DeriveOutgoing()

	return pipe, dropped, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}

	return list
}
