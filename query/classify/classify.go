// Package classify derives the shape of a query graph ahead of clause
// building.
package classify

import (
	"errors"
	"strings"

	"github.com/streamq-io/streamq/query/graph"
)

// Shape tags the overall form of a query and selects the clause-building
// path. Precedence when several flags are set: Join > Aggregate > Windowed >
// Simple.
type Shape string

const (
	ShapeSimple    Shape = "Simple"
	ShapeAggregate Shape = "Aggregate"
	ShapeJoin      Shape = "Join"
	ShapeWindowed  Shape = "Windowed"
)

// aggregateNames is the fixed set of operator names that flag aggregation.
// Lookup is case-insensitive on the normalized (lowercased) name.
var aggregateNames = map[string]struct{}{
	"sum":              {},
	"count":            {},
	"max":              {},
	"min":              {},
	"average":          {},
	"avg":              {},
	"latestbyoffset":   {},
	"earliestbyoffset": {},
	"collectlist":      {},
	"collectset":       {},
}

// ErrNoSource is returned when the walked graph has no source node at its
// root.
var ErrNoSource = errors.New("query graph has no source node")

// Classification is the result of one Analyze pass. It is recomputed for
// every compile and never cached.
type Classification struct {
	// Ops lists every operator node in encounter order, source first.
	Ops []graph.Kind

	HasGroupBy     bool
	HasJoin        bool
	HasWindow      bool
	HasAggregation bool

	Shape Shape

	// Direct handles for the assembler. Where predicates keep chain order.
	Source  *graph.SourceNode
	Wheres  []*graph.WhereNode
	Select  *graph.SelectNode
	GroupBy *graph.GroupByNode
	Having  *graph.HavingNode
	Window  *graph.WindowedByNode
	Join    *graph.JoinNode
	Take    *graph.TakeNode
	Skip    *graph.SkipNode
}

// Analyze walks the graph once, depth first, and derives its classification.
// It is pure: the same graph always yields the same result, and the graph is
// never modified.
func Analyze(root graph.Node) (*Classification, error) {
	if root == nil {
		return nil, errors.New("query graph is nil")
	}

	// The chain links each node to its predecessor; reverse it so Ops holds
	// encounter order from the source outward.
	var chain []graph.Node
	for n := root; n != nil; n = n.Prev() {
		chain = append(chain, n)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	c := &Classification{}
	for _, n := range chain {
		c.Ops = append(c.Ops, n.Kind())

		switch node := n.(type) {
		case *graph.SourceNode:
			c.Source = node
		case *graph.WhereNode:
			c.Wheres = append(c.Wheres, node)
		case *graph.SelectNode:
			c.Select = node
			if containsAggregate(node.Fields...) {
				c.HasAggregation = true
			}
		case *graph.GroupByNode:
			c.GroupBy = node
			c.HasGroupBy = true
			c.HasAggregation = true
		case *graph.HavingNode:
			c.Having = node
			if containsAggregate(node.Predicate) {
				c.HasAggregation = true
			}
		case *graph.WindowedByNode:
			c.Window = node
			c.HasWindow = true
		case *graph.JoinNode:
			c.Join = node
			c.HasJoin = true
		case *graph.TakeNode:
			c.Take = node
		case *graph.SkipNode:
			c.Skip = node
		}
	}

	if c.Source == nil {
		return nil, ErrNoSource
	}

	switch {
	case c.HasJoin:
		c.Shape = ShapeJoin
	case c.HasAggregation:
		c.Shape = ShapeAggregate
	case c.HasWindow:
		c.Shape = ShapeWindowed
	default:
		c.Shape = ShapeSimple
	}

	return c, nil
}

// IsAggregateName reports whether name is in the fixed aggregate-name set,
// ignoring case and separators.
func IsAggregateName(name string) bool {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	_, ok := aggregateNames[normalized]
	return ok
}

func containsAggregate(exprs ...graph.Expr) bool {
	for _, e := range exprs {
		if e == nil {
			continue
		}
		switch x := e.(type) {
		case graph.AggregateExpr:
			if IsAggregateName(x.Func) {
				return true
			}
		case graph.BinaryExpr:
			if containsAggregate(x.Left, x.Right) {
				return true
			}
		case graph.NotExpr:
			if containsAggregate(x.Operand) {
				return true
			}
		case graph.AliasExpr:
			if containsAggregate(x.Expr) {
				return true
			}
		case graph.TupleExpr:
			if containsAggregate(x.Items...) {
				return true
			}
		}
	}
	return false
}
