package sqlgen

import (
	"fmt"
	"strings"

	"github.com/streamq-io/streamq/query/graph"
)

// BuildGroupBy renders the GROUP BY clause from a group-by node.
func BuildGroupBy(node *graph.GroupByNode) (string, error) {
	if node == nil || len(node.Keys) == 0 {
		return "", fmt.Errorf("%w: group-by with no keys", ErrMalformedClause)
	}

	keys := make([]string, len(node.Keys))
	for i, k := range node.Keys {
		s, err := renderOperand(k)
		if err != nil {
			return "", err
		}
		keys[i] = s
	}
	return "GROUP BY " + strings.Join(keys, ", "), nil
}

// BuildHaving renders the HAVING clause from a having node. The predicate
// may reference aggregate calls; they are rendered with engine-native names.
func BuildHaving(node *graph.HavingNode) (string, error) {
	if node == nil || node.Predicate == nil {
		return "", fmt.Errorf("%w: having with no predicate", ErrMalformedClause)
	}

	pred, err := BuildPredicate(node.Predicate)
	if err != nil {
		return "", err
	}
	return "HAVING " + pred, nil
}
