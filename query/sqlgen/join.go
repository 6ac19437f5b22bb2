package sqlgen

import (
	"fmt"
	"strings"

	"github.com/streamq-io/streamq/query/graph"
)

// BuildJoin renders the JOIN clause: join type, target stream with alias, an
// optional WITHIN grace interval, and the join predicate. Composite-key
// predicates reuse the tuple-equality expansion.
func BuildJoin(node *graph.JoinNode) (string, error) {
	if node == nil || node.Target == "" {
		return "", fmt.Errorf("%w: join with no target stream", ErrMalformedClause)
	}
	if node.On == nil {
		return "", fmt.Errorf("%w: join with no predicate", ErrMalformedClause)
	}

	var b strings.Builder
	switch node.Type {
	case graph.JoinInner, graph.JoinLeft, graph.JoinFull:
		b.WriteString(string(node.Type))
	case "":
		b.WriteString(string(graph.JoinInner))
	default:
		return "", fmt.Errorf("%w: join type %q", ErrUnsupportedExpression, node.Type)
	}
	b.WriteString(" JOIN ")
	b.WriteString(node.Target)
	if node.TargetAlias != "" {
		b.WriteString(" ")
		b.WriteString(node.TargetAlias)
	}

	if node.Within > 0 {
		within, err := formatInterval(node.Within)
		if err != nil {
			return "", err
		}
		b.WriteString(" WITHIN ")
		b.WriteString(within)
	}

	on, err := BuildPredicate(node.On)
	if err != nil {
		return "", err
	}
	b.WriteString(" ON ")
	b.WriteString(on)

	return b.String(), nil
}
