// Package store provides a graph.Store that remembers insertion order, so that
// adjacency derived from it is deterministic.
package store

import (
	"slices"
	"sync"

	"github.com/dominikbraun/graph"
)

type edgeKey[K comparable] struct {
	source, target K
}

// node is a vertex with its neighbours, each list in insertion order.
type node[K comparable, T any] struct {
	value        T
	props        graph.VertexProperties
	successors   []K
	predecessors []K
}

// OrderedStore is an in-memory graph.Store. Vertices and edges are listed in the
// order they were added.
type OrderedStore[K comparable, T any] struct {
	mu    sync.RWMutex
	nodes map[K]*node[K, T]
	order []K
	edges map[edgeKey[K]]graph.Edge[K]
}

// NewOrderedStore returns an empty store.
func NewOrderedStore[K comparable, T any]() *OrderedStore[K, T] {
	return &OrderedStore[K, T]{
		nodes: make(map[K]*node[K, T]),
		edges: make(map[edgeKey[K]]graph.Edge[K]),
	}
}

func (s *OrderedStore[K, T]) AddVertex(hash K, value T, props graph.VertexProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[hash]; exists {
		return graph.ErrVertexAlreadyExists
	}
	s.nodes[hash] = &node[K, T]{value: value, props: props}
	s.order = append(s.order, hash)

	return nil
}

func (s *OrderedStore[K, T]) ListVertices() ([]K, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order), nil
}

func (s *OrderedStore[K, T]) VertexCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order), nil
}

func (s *OrderedStore[K, T]) Vertex(hash K) (T, graph.VertexProperties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nodes[hash]
	if !exists {
		var zero T
		return zero, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return n.value, n.props, nil
}

// RemoveVertex refuses to drop a vertex that still has edges, like the
// default graph store does.
func (s *OrderedStore[K, T]) RemoveVertex(hash K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[hash]
	switch {
	case !exists:
		return graph.ErrVertexNotFound
	case len(n.successors) > 0 || len(n.predecessors) > 0:
		return graph.ErrVertexHasEdges
	}

	delete(s.nodes, hash)
	s.order = remove(s.order, hash)

	return nil
}

// AddEdge expects both vertices to exist; graph.Graph checks that before
// calling it.
func (s *OrderedStore[K, T]) AddEdge(source, target K, edge graph.Edge[K]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey[K]{source, target}
	if _, exists := s.edges[key]; !exists {
		s.nodes[source].successors = append(s.nodes[source].successors, target)
		s.nodes[target].predecessors = append(s.nodes[target].predecessors, source)
	}
	s.edges[key] = edge

	return nil
}

func (s *OrderedStore[K, T]) UpdateEdge(source, target K, edge graph.Edge[K]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey[K]{source, target}
	if _, exists := s.edges[key]; !exists {
		return graph.ErrEdgeNotFound
	}
	s.edges[key] = edge

	return nil
}

func (s *OrderedStore[K, T]) RemoveEdge(source, target K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey[K]{source, target}
	if _, exists := s.edges[key]; !exists {
		return nil
	}
	delete(s.edges, key)
	if n, ok := s.nodes[source]; ok {
		n.successors = remove(n.successors, target)
	}
	if n, ok := s.nodes[target]; ok {
		n.predecessors = remove(n.predecessors, source)
	}

	return nil
}

func (s *OrderedStore[K, T]) Edge(source, target K) (graph.Edge[K], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, exists := s.edges[edgeKey[K]{source, target}]
	if !exists {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

// ListEdges lists edges grouped by source vertex, in vertex then edge order.
func (s *OrderedStore[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]graph.Edge[K], 0, len(s.edges))
	for _, source := range s.order {
		for _, target := range s.nodes[source].successors {
			res = append(res, s.edges[edgeKey[K]{source, target}])
		}
	}

	return res, nil
}

// Successors returns the targets of the vertex's outgoing edges in insertion
// order.
func (s *OrderedStore[K, T]) Successors(hash K) []K {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.nodes[hash]; ok {
		return slices.Clone(n.successors)
	}

	return nil
}

// Predecessors returns the sources of the vertex's incoming edges in insertion
// order.
func (s *OrderedStore[K, T]) Predecessors(hash K) []K {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.nodes[hash]; ok {
		return slices.Clone(n.predecessors)
	}

	return nil
}

func remove[K comparable](list []K, k K) []K {
	if i := slices.Index(list, k); i >= 0 {
		return slices.Delete(list, i, i+1)
	}

	return list
}

var _ graph.Store[string, string] = (*OrderedStore[string, string])(nil)
