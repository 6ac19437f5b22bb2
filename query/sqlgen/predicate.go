// Package sqlgen renders query-graph nodes into the streaming-SQL dialect.
// Every builder is a stateless pure function from node to text.
package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/streamq-io/streamq/query/graph"
)

var (
	// ErrUnsupportedExpression is returned for expression shapes the dialect
	// cannot express. The builder rejects them instead of dropping them.
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrArityMismatch is returned when a composite-key equality compares
	// constructors of unequal field arity. The condition is never emitted
	// partially.
	ErrArityMismatch = errors.New("composite key arity mismatch")

	// ErrMalformedClause is returned when a clause node is structurally
	// incomplete, such as a nil predicate.
	ErrMalformedClause = errors.New("malformed clause")
)

// timeLiteralLayout is the single-quoted date/time literal format.
const timeLiteralLayout = "2006-01-02 15:04:05"

// BuildPredicate renders a boolean expression. A bare boolean field access
// normalizes to an explicit equality with true, and its negation to an
// equality with false.
func BuildPredicate(e graph.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: nil predicate", ErrMalformedClause)
	}

	switch x := e.(type) {
	case graph.FieldRef:
		return fmt.Sprintf("(%s = true)", fieldName(x)), nil

	case graph.NotExpr:
		if f, ok := x.Operand.(graph.FieldRef); ok {
			return fmt.Sprintf("(%s = false)", fieldName(f)), nil
		}
		inner, err := BuildPredicate(x.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(NOT %s)", inner), nil

	case graph.Literal:
		return formatLiteral(x.Val)

	case graph.BinaryExpr:
		switch x.Op {
		case graph.OpAnd, graph.OpOr:
			left, err := BuildPredicate(x.Left)
			if err != nil {
				return "", err
			}
			right, err := BuildPredicate(x.Right)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s %s %s)", left, x.Op, right), nil

		case graph.OpEq, graph.OpNeq, graph.OpGt, graph.OpGte, graph.OpLt, graph.OpLte:
			return buildComparison(x)

		default:
			return "", fmt.Errorf("%w: operator %q is not a predicate", ErrUnsupportedExpression, x.Op)
		}

	default:
		return "", fmt.Errorf("%w: %T cannot be used as a predicate", ErrUnsupportedExpression, e)
	}
}

// buildComparison renders a single comparison. A tuple-to-tuple equality
// expands to one conjunct per field, in constructor order.
func buildComparison(e graph.BinaryExpr) (string, error) {
	leftTuple, leftIsTuple := e.Left.(graph.TupleExpr)
	rightTuple, rightIsTuple := e.Right.(graph.TupleExpr)

	if leftIsTuple || rightIsTuple {
		if e.Op != graph.OpEq {
			return "", fmt.Errorf("%w: composite keys only support equality, got %q", ErrUnsupportedExpression, e.Op)
		}
		if !leftIsTuple || !rightIsTuple {
			return "", fmt.Errorf("%w: tuple compared against a non-tuple", ErrArityMismatch)
		}
		return expandCompositeEquality(leftTuple, rightTuple)
	}

	left, err := renderOperand(e.Left)
	if err != nil {
		return "", err
	}
	right, err := renderOperand(e.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, e.Op, right), nil
}

// expandCompositeEquality turns {a.Id, a.Type} = {b.Id, b.Type} into
// (a.Id = b.Id AND a.Type = b.Type). Unequal arity is a hard error; no
// partial condition is ever emitted.
func expandCompositeEquality(left, right graph.TupleExpr) (string, error) {
	if len(left.Items) != len(right.Items) {
		return "", fmt.Errorf("%w: %d fields vs %d fields", ErrArityMismatch, len(left.Items), len(right.Items))
	}
	if len(left.Items) == 0 {
		return "", fmt.Errorf("%w: empty composite key", ErrMalformedClause)
	}

	conjuncts := make([]string, len(left.Items))
	for i := range left.Items {
		l, err := renderOperand(left.Items[i])
		if err != nil {
			return "", err
		}
		r, err := renderOperand(right.Items[i])
		if err != nil {
			return "", err
		}
		conjuncts[i] = fmt.Sprintf("%s = %s", l, r)
	}
	return "(" + strings.Join(conjuncts, " AND ") + ")", nil
}

// renderOperand renders an expression appearing on one side of an operator.
func renderOperand(e graph.Expr) (string, error) {
	switch x := e.(type) {
	case graph.FieldRef:
		return fieldName(x), nil

	case graph.Literal:
		return formatLiteral(x.Val)

	case graph.AggregateExpr:
		return RenderAggregate(x)

	case graph.BinaryExpr:
		switch x.Op {
		case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv:
			left, err := renderOperand(x.Left)
			if err != nil {
				return "", err
			}
			right, err := renderOperand(x.Right)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s %s %s)", left, x.Op, right), nil
		default:
			// A nested boolean expression used as an operand.
			return BuildPredicate(x)
		}

	case graph.NotExpr:
		return BuildPredicate(x)

	case nil:
		return "", fmt.Errorf("%w: nil operand", ErrMalformedClause)

	default:
		return "", fmt.Errorf("%w: %T cannot be used as an operand", ErrUnsupportedExpression, e)
	}
}

func fieldName(f graph.FieldRef) string {
	if f.Qualifier != "" {
		return f.Qualifier + "." + f.Name
	}
	return f.Name
}

// formatLiteral renders a constant: strings single-quoted with embedded
// quotes doubled, booleans lowercase, date/time single-quoted in
// "yyyy-MM-dd HH:mm:ss" form.
func formatLiteral(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return "'" + x.Format(timeLiteralLayout) + "'", nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", x), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: literal of type %T", ErrUnsupportedExpression, v)
	}
}
