// Package validate wraps terminal operations with pre-flight and
// post-flight safety checks.
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/streamq-io/streamq/diagnostics"
	"github.com/streamq-io/streamq/query/classify"
	"github.com/streamq-io/streamq/query/compiler"
	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/schema"
)

// Complexity weights per operator.
const (
	weightFilter    = 1
	weightProject   = 1
	weightAggregate = 2
	weightGroupBy   = 3
	weightJoin      = 5
)

// rejectedOperators are representable in the graph but rejected by the
// target engine; pre-flight names them instead of letting them mis-compile.
var rejectedOperators = map[graph.Kind]struct{}{
	graph.KindOrderBy:   {},
	graph.KindDistinct:  {},
	graph.KindUnion:     {},
	graph.KindIntersect: {},
	graph.KindExcept:    {},
}

// PreFlight checks the graph and metadata before any collaborator call.
// With strict enabled it additionally verifies that every field type is
// schema-representable and records the query complexity score. The score is
// logged only; it never rejects.
func PreFlight(root graph.Node, meta *schema.EntityMetadata, strict bool, rec *diagnostics.Recorder) error {
	if meta == nil {
		return &compiler.ValidationError{Reason: "entity metadata is missing", Err: compiler.ErrInvalidMetadata}
	}
	if !meta.Valid {
		return &compiler.ValidationError{
			Reason: fmt.Sprintf("entity metadata for %s is invalid: %v", meta.Entity, meta.Errors),
			Err:    compiler.ErrInvalidMetadata,
		}
	}
	if root == nil {
		return &compiler.ValidationError{Reason: "query graph is nil", Err: compiler.ErrNilGraph}
	}

	for n := root; n != nil; n = n.Prev() {
		if _, rejected := rejectedOperators[n.Kind()]; rejected {
			return &compiler.ValidationError{
				Operator: string(n.Kind()),
				Reason:   "the target engine does not support this operator",
				Err:      compiler.ErrUnsupportedOperator,
			}
		}
	}

	if strict {
		for _, f := range meta.Fields {
			if !schemaRepresentable(f.Type) {
				return &compiler.ValidationError{
					Reason: fmt.Sprintf("field %s has non-representable type %s", f.GoName, f.Type),
				}
			}
		}
		score := Complexity(root)
		if rec != nil {
			rec.Meta("complexity_score", strconv.Itoa(score))
			rec.Stepf("validate", "complexity score %d (log-only)", score)
		}
	}

	return nil
}

// Complexity computes the weighted operator score of a graph: filters and
// projections weigh 1, aggregates 2, group-bys 3, joins 5.
func Complexity(root graph.Node) int {
	score := 0
	for n := root; n != nil; n = n.Prev() {
		switch node := n.(type) {
		case *graph.WhereNode:
			score += weightFilter
		case *graph.SelectNode:
			score += weightProject
			score += weightAggregate * countAggregates(node.Fields...)
		case *graph.GroupByNode:
			score += weightGroupBy
		case *graph.HavingNode:
			score += weightAggregate * countAggregates(node.Predicate)
		case *graph.JoinNode:
			score += weightJoin
		case *graph.SetOpNode:
			score += Complexity(node.Other)
		}
	}
	return score
}

func countAggregates(exprs ...graph.Expr) int {
	count := 0
	for _, e := range exprs {
		switch x := e.(type) {
		case graph.AggregateExpr:
			if classify.IsAggregateName(x.Func) {
				count++
			}
			count += countAggregates(x.Arg)
		case graph.BinaryExpr:
			count += countAggregates(x.Left, x.Right)
		case graph.NotExpr:
			count += countAggregates(x.Operand)
		case graph.AliasExpr:
			count += countAggregates(x.Expr)
		case graph.TupleExpr:
			count += countAggregates(x.Items...)
		}
	}
	return count
}

// schemaRepresentable reports whether a Go type has a streaming-schema
// equivalent.
func schemaRepresentable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice, reflect.Array:
		return schemaRepresentable(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && schemaRepresentable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if !schemaRepresentable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PostFlight checks materialized rows after execution. rows must be a slice
// of entity structs (or pointers to them). Strict mode additionally enforces
// required-field, max-length, and declared-type constraints per row.
func PostFlight(rows any, meta *schema.EntityMetadata, strict bool) error {
	if rows == nil {
		return &compiler.ValidationError{Reason: "execution returned nil results"}
	}

	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return &compiler.ValidationError{Reason: fmt.Sprintf("results must be a slice, got %s", v.Kind())}
	}
	if v.IsNil() {
		return &compiler.ValidationError{Reason: "execution returned nil results"}
	}
	if !strict || meta == nil {
		return nil
	}

	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		for row.Kind() == reflect.Ptr {
			if row.IsNil() {
				return &compiler.ValidationError{Reason: fmt.Sprintf("row %d is nil", i)}
			}
			row = row.Elem()
		}
		if row.Kind() != reflect.Struct {
			return &compiler.ValidationError{Reason: fmt.Sprintf("row %d is not a struct", i)}
		}
		if err := checkRow(row, meta, i); err != nil {
			return err
		}
	}
	return nil
}

func checkRow(row reflect.Value, meta *schema.EntityMetadata, index int) error {
	for _, f := range meta.Fields {
		fv := row.FieldByName(f.GoName)
		if !fv.IsValid() {
			if f.Required {
				return &compiler.ValidationError{Reason: fmt.Sprintf("row %d: required field %s is absent", index, f.GoName)}
			}
			continue
		}

		declared := fv.Type()
		if f.Type != nil && declared != f.Type {
			return &compiler.ValidationError{
				Reason: fmt.Sprintf("row %d: field %s has type %s, metadata declares %s", index, f.GoName, declared, f.Type),
			}
		}

		if f.Required && fv.IsZero() {
			return &compiler.ValidationError{Reason: fmt.Sprintf("row %d: required field %s is empty", index, f.GoName)}
		}
		if f.MaxLen > 0 && fv.Kind() == reflect.String && len(fv.String()) > f.MaxLen {
			return &compiler.ValidationError{
				Reason: fmt.Sprintf("row %d: field %s exceeds max length %d", index, f.GoName, f.MaxLen),
			}
		}
	}
	return nil
}
