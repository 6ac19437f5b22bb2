// Package graph defines the immutable operator-node graph accumulated by
// chained query calls.
package graph

import "time"

// Kind identifies the operator a node represents.
type Kind string

const (
	KindSource     Kind = "Source"
	KindWhere      Kind = "Where"
	KindSelect     Kind = "Select"
	KindGroupBy    Kind = "GroupBy"
	KindHaving     Kind = "Having"
	KindWindowedBy Kind = "WindowedBy"
	KindJoin       Kind = "Join"
	KindTake       Kind = "Take"
	KindSkip       Kind = "Skip"

	// Expressible but rejected before compilation; the target engine does
	// not accept ordering, distinct, or set operations.
	KindOrderBy   Kind = "OrderBy"
	KindDistinct  Kind = "Distinct"
	KindUnion     Kind = "Union"
	KindIntersect Kind = "Intersect"
	KindExcept    Kind = "Except"
)

// Node is one operator in the query graph. Nodes are append-only: every
// chain call wraps the previous node, and earlier nodes are never mutated.
type Node interface {
	Kind() Kind
	// Prev returns the node this operator was chained onto, nil for a source.
	Prev() Node
}

// SourceNode is the root of every graph: the backing stream being queried.
type SourceNode struct {
	Stream string
	Entity string
}

func (n *SourceNode) Kind() Kind { return KindSource }
func (n *SourceNode) Prev() Node { return nil }

// WhereNode filters rows by a predicate expression.
type WhereNode struct {
	prev      Node
	Predicate Expr
}

func (n *WhereNode) Kind() Kind { return KindWhere }
func (n *WhereNode) Prev() Node { return n.prev }

// SelectNode projects output fields. An empty field list means SELECT *.
type SelectNode struct {
	prev   Node
	Fields []Expr
}

func (n *SelectNode) Kind() Kind { return KindSelect }
func (n *SelectNode) Prev() Node { return n.prev }

// GroupByNode groups rows by one or more key expressions.
type GroupByNode struct {
	prev Node
	Keys []Expr
}

func (n *GroupByNode) Kind() Kind { return KindGroupBy }
func (n *GroupByNode) Prev() Node { return n.prev }

// HavingNode filters groups by a predicate over aggregates.
type HavingNode struct {
	prev      Node
	Predicate Expr
}

func (n *HavingNode) Kind() Kind { return KindHaving }
func (n *HavingNode) Prev() Node { return n.prev }

// WindowType selects the windowing strategy.
type WindowType string

const (
	WindowTumbling WindowType = "TUMBLING"
	WindowHopping  WindowType = "HOPPING"
	WindowSession  WindowType = "SESSION"
)

// WindowDef describes a time window over the stream.
type WindowDef struct {
	Type    WindowType
	Size    time.Duration // tumbling and hopping
	Advance time.Duration // hopping only
	Gap     time.Duration // session only
}

// WindowedByNode applies a time window to the query.
type WindowedByNode struct {
	prev   Node
	Window WindowDef
}

func (n *WindowedByNode) Kind() Kind { return KindWindowedBy }
func (n *WindowedByNode) Prev() Node { return n.prev }

// JoinType selects the join flavor.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinFull  JoinType = "FULL OUTER"
)

// JoinNode joins the source stream with another stream. On is the join
// predicate; a Tuple-to-Tuple equality expands to per-field conjuncts.
type JoinNode struct {
	prev        Node
	Type        JoinType
	Target      string // stream being joined in
	SourceAlias string
	TargetAlias string
	On          Expr
	Within      time.Duration // 0 means no WITHIN clause
}

func (n *JoinNode) Kind() Kind { return KindJoin }
func (n *JoinNode) Prev() Node { return n.prev }

// TakeNode limits the number of emitted rows.
type TakeNode struct {
	prev  Node
	Count int
}

func (n *TakeNode) Kind() Kind { return KindTake }
func (n *TakeNode) Prev() Node { return n.prev }

// SkipNode skips leading rows.
type SkipNode struct {
	prev  Node
	Count int
}

func (n *SkipNode) Kind() Kind { return KindSkip }
func (n *SkipNode) Prev() Node { return n.prev }

// OrderByNode records an ordering request. It is representable so that
// validation can reject it by name instead of mis-compiling it.
type OrderByNode struct {
	prev       Node
	Field      Expr
	Descending bool
}

func (n *OrderByNode) Kind() Kind { return KindOrderBy }
func (n *OrderByNode) Prev() Node { return n.prev }

// DistinctNode records a distinct request; rejected at validation.
type DistinctNode struct {
	prev Node
}

func (n *DistinctNode) Kind() Kind { return KindDistinct }
func (n *DistinctNode) Prev() Node { return n.prev }

// SetOpNode records a union/intersect/except request; rejected at validation.
type SetOpNode struct {
	prev  Node
	op    Kind
	Other Node
}

func (n *SetOpNode) Kind() Kind { return n.op }
func (n *SetOpNode) Prev() Node { return n.prev }

// NewSource starts a graph over the named stream.
func NewSource(stream, entity string) *SourceNode {
	return &SourceNode{Stream: stream, Entity: entity}
}

// Where chains a filter onto prev.
func Where(prev Node, predicate Expr) *WhereNode {
	return &WhereNode{prev: prev, Predicate: predicate}
}

// Select chains a projection onto prev.
func Select(prev Node, fields ...Expr) *SelectNode {
	return &SelectNode{prev: prev, Fields: fields}
}

// GroupBy chains a grouping onto prev.
func GroupBy(prev Node, keys ...Expr) *GroupByNode {
	return &GroupByNode{prev: prev, Keys: keys}
}

// Having chains a group filter onto prev.
func Having(prev Node, predicate Expr) *HavingNode {
	return &HavingNode{prev: prev, Predicate: predicate}
}

// WindowedBy chains a time window onto prev.
func WindowedBy(prev Node, def WindowDef) *WindowedByNode {
	return &WindowedByNode{prev: prev, Window: def}
}

// Join chains a join onto prev.
func Join(prev Node, jt JoinType, target, sourceAlias, targetAlias string, on Expr) *JoinNode {
	return &JoinNode{prev: prev, Type: jt, Target: target, SourceAlias: sourceAlias, TargetAlias: targetAlias, On: on}
}

// JoinWithin chains a join with a WITHIN grace interval onto prev.
func JoinWithin(prev Node, jt JoinType, target, sourceAlias, targetAlias string, on Expr, within time.Duration) *JoinNode {
	n := Join(prev, jt, target, sourceAlias, targetAlias, on)
	n.Within = within
	return n
}

// Take chains a row limit onto prev.
func Take(prev Node, count int) *TakeNode {
	return &TakeNode{prev: prev, Count: count}
}

// Skip chains a row skip onto prev.
func Skip(prev Node, count int) *SkipNode {
	return &SkipNode{prev: prev, Count: count}
}

// OrderBy chains an ordering request onto prev.
func OrderBy(prev Node, field Expr, descending bool) *OrderByNode {
	return &OrderByNode{prev: prev, Field: field, Descending: descending}
}

// Distinct chains a distinct request onto prev.
func Distinct(prev Node) *DistinctNode {
	return &DistinctNode{prev: prev}
}

// Union chains a union request onto prev.
func Union(prev, other Node) *SetOpNode {
	return &SetOpNode{prev: prev, op: KindUnion, Other: other}
}

// Intersect chains an intersect request onto prev.
func Intersect(prev, other Node) *SetOpNode {
	return &SetOpNode{prev: prev, op: KindIntersect, Other: other}
}

// Except chains an except request onto prev.
func Except(prev, other Node) *SetOpNode {
	return &SetOpNode{prev: prev, op: KindExcept, Other: other}
}
