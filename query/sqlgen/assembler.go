package sqlgen

import (
	"fmt"
	"strings"

	"github.com/streamq-io/streamq/query/classify"
)

// emitChanges is the continuous-emission suffix that turns a query into a
// push query.
const emitChanges = "EMIT CHANGES"

// BuildQuery sequences the clause builders into the final query text. It
// trusts the classification and performs no validation of its own. Pull
// queries never carry the continuous-emission suffix; push queries always
// do.
func BuildQuery(c *classify.Classification, streamName string, isPullQuery bool) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: nil classification", ErrMalformedClause)
	}
	if streamName == "" {
		return "", fmt.Errorf("%w: empty stream name", ErrMalformedClause)
	}

	var parts []string

	selectClause, err := BuildProjection(c.Select)
	if err != nil {
		return "", err
	}
	parts = append(parts, selectClause)

	from := "FROM " + streamName
	if c.HasJoin && c.Join.SourceAlias != "" {
		from += " " + c.Join.SourceAlias
	}
	parts = append(parts, from)

	if len(c.Wheres) > 0 {
		predicates := make([]string, len(c.Wheres))
		for i, w := range c.Wheres {
			p, err := BuildPredicate(w.Predicate)
			if err != nil {
				return "", err
			}
			predicates[i] = p
		}
		parts = append(parts, "WHERE "+strings.Join(predicates, " AND "))
	}

	if c.HasGroupBy {
		groupBy, err := BuildGroupBy(c.GroupBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, groupBy)
	}

	if c.Having != nil {
		having, err := BuildHaving(c.Having)
		if err != nil {
			return "", err
		}
		parts = append(parts, having)
	}

	if c.HasWindow {
		window, err := BuildWindow(c.Window)
		if err != nil {
			return "", err
		}
		parts = append(parts, window)
	}

	if c.HasJoin {
		join, err := BuildJoin(c.Join)
		if err != nil {
			return "", err
		}
		parts = append(parts, join)
	}

	if !isPullQuery {
		parts = append(parts, emitChanges)
	}

	if c.Take != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", c.Take.Count))
	}
	if c.Skip != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", c.Skip.Count))
	}

	return strings.Join(parts, " "), nil
}
