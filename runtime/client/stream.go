package client

import (
	"time"

	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/schema"
)

// Stream is the per-entity query facade. It holds an immutable accumulated
// graph; every chain call returns a new facade over a new node and never
// mutates the receiver.
type Stream[T any] struct {
	client *Client
	meta   *schema.EntityMetadata
	root   graph.Node
	diag   *diagState
}

// Metadata returns the entity metadata backing this facade.
func (s *Stream[T]) Metadata() *schema.EntityMetadata { return s.meta }

// Graph returns the accumulated query graph.
func (s *Stream[T]) Graph() graph.Node { return s.root }

func (s *Stream[T]) derive(root graph.Node) *Stream[T] {
	return &Stream[T]{client: s.client, meta: s.meta, root: root, diag: s.diag}
}

// Where chains a filter.
func (s *Stream[T]) Where(predicate graph.Expr) *Stream[T] {
	return s.derive(graph.Where(s.root, predicate))
}

// Select chains a projection.
func (s *Stream[T]) Select(fields ...graph.Expr) *Stream[T] {
	return s.derive(graph.Select(s.root, fields...))
}

// GroupBy chains a grouping.
func (s *Stream[T]) GroupBy(keys ...graph.Expr) *Stream[T] {
	return s.derive(graph.GroupBy(s.root, keys...))
}

// Having chains a group filter.
func (s *Stream[T]) Having(predicate graph.Expr) *Stream[T] {
	return s.derive(graph.Having(s.root, predicate))
}

// WindowedBy chains a time window.
func (s *Stream[T]) WindowedBy(def graph.WindowDef) *Stream[T] {
	return s.derive(graph.WindowedBy(s.root, def))
}

// Join chains a join against another stream.
func (s *Stream[T]) Join(jt graph.JoinType, target, sourceAlias, targetAlias string, on graph.Expr) *Stream[T] {
	return s.derive(graph.Join(s.root, jt, target, sourceAlias, targetAlias, on))
}

// JoinWithin chains a join with a WITHIN grace interval.
func (s *Stream[T]) JoinWithin(jt graph.JoinType, target, sourceAlias, targetAlias string, on graph.Expr, within time.Duration) *Stream[T] {
	return s.derive(graph.JoinWithin(s.root, jt, target, sourceAlias, targetAlias, on, within))
}

// Take chains a row limit.
func (s *Stream[T]) Take(count int) *Stream[T] {
	return s.derive(graph.Take(s.root, count))
}

// Skip chains a row skip.
func (s *Stream[T]) Skip(count int) *Stream[T] {
	return s.derive(graph.Skip(s.root, count))
}

// OrderBy chains an ordering request. The target engine rejects ordering, so
// any terminal operation on the result fails pre-flight with a named error.
func (s *Stream[T]) OrderBy(field graph.Expr, descending bool) *Stream[T] {
	return s.derive(graph.OrderBy(s.root, field, descending))
}

// Distinct chains a distinct request; rejected at pre-flight.
func (s *Stream[T]) Distinct() *Stream[T] {
	return s.derive(graph.Distinct(s.root))
}

// Union chains a union with another facade's graph; rejected at pre-flight.
func (s *Stream[T]) Union(other *Stream[T]) *Stream[T] {
	return s.derive(graph.Union(s.root, other.root))
}

// Intersect chains an intersect request; rejected at pre-flight.
func (s *Stream[T]) Intersect(other *Stream[T]) *Stream[T] {
	return s.derive(graph.Intersect(s.root, other.root))
}

// Except chains an except request; rejected at pre-flight.
func (s *Stream[T]) Except(other *Stream[T]) *Stream[T] {
	return s.derive(graph.Except(s.root, other.root))
}
