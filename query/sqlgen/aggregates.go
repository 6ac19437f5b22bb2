package sqlgen

import (
	"fmt"
	"strings"

	"github.com/streamq-io/streamq/query/graph"
)

// engineAggregates maps normalized operator names to the engine-native
// function names.
var engineAggregates = map[string]string{
	"sum":              "SUM",
	"count":            "COUNT",
	"max":              "MAX",
	"min":              "MIN",
	"average":          "AVG",
	"avg":              "AVG",
	"latestbyoffset":   "LATEST_BY_OFFSET",
	"earliestbyoffset": "EARLIEST_BY_OFFSET",
	"collectlist":      "COLLECT_LIST",
	"collectset":       "COLLECT_SET",
}

// MapAggregateName resolves an operator name to the engine-native aggregate
// function name. Matching is case-insensitive and ignores separators, so
// "Average", "avg" and "AVERAGE" all resolve to AVG.
func MapAggregateName(name string) (string, bool) {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	mapped, ok := engineAggregates[normalized]
	return mapped, ok
}

// RenderAggregate renders an aggregate call. A nil argument renders as
// COUNT(*)-style.
func RenderAggregate(e graph.AggregateExpr) (string, error) {
	name, ok := MapAggregateName(e.Func)
	if !ok {
		return "", fmt.Errorf("%w: aggregate function %q", ErrUnsupportedExpression, e.Func)
	}
	if e.Arg == nil {
		return name + "(*)", nil
	}
	arg, err := renderOperand(e.Arg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", name, arg), nil
}
