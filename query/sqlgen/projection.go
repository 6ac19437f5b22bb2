package sqlgen

import (
	"fmt"
	"strings"

	"github.com/streamq-io/streamq/query/graph"
)

// BuildProjection renders the SELECT clause. An absent or empty selector
// projects every field.
func BuildProjection(sel *graph.SelectNode) (string, error) {
	if sel == nil || len(sel.Fields) == 0 {
		return "SELECT *", nil
	}

	rendered := make([]string, len(sel.Fields))
	for i, f := range sel.Fields {
		s, err := renderProjected(f)
		if err != nil {
			return "", err
		}
		rendered[i] = s
	}
	return "SELECT " + strings.Join(rendered, ", "), nil
}

func renderProjected(e graph.Expr) (string, error) {
	if alias, ok := e.(graph.AliasExpr); ok {
		inner, err := renderOperand(alias.Expr)
		if err != nil {
			return "", err
		}
		if alias.As == "" {
			return "", fmt.Errorf("%w: empty projection alias", ErrMalformedClause)
		}
		return fmt.Sprintf("%s AS %s", inner, alias.As), nil
	}
	return renderOperand(e)
}
