package sqlgen

import (
	"fmt"
	"time"

	"github.com/streamq-io/streamq/query/graph"
)

// BuildWindow renders the WINDOW clause from a window node.
func BuildWindow(node *graph.WindowedByNode) (string, error) {
	if node == nil {
		return "", fmt.Errorf("%w: missing window definition", ErrMalformedClause)
	}
	def := node.Window

	switch def.Type {
	case graph.WindowTumbling:
		size, err := formatInterval(def.Size)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("WINDOW TUMBLING (SIZE %s)", size), nil

	case graph.WindowHopping:
		size, err := formatInterval(def.Size)
		if err != nil {
			return "", err
		}
		advance, err := formatInterval(def.Advance)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("WINDOW HOPPING (SIZE %s, ADVANCE BY %s)", size, advance), nil

	case graph.WindowSession:
		gap, err := formatInterval(def.Gap)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("WINDOW SESSION (%s)", gap), nil

	default:
		return "", fmt.Errorf("%w: window type %q", ErrUnsupportedExpression, def.Type)
	}
}

// formatInterval renders a duration in the largest unit that divides it
// exactly, down to milliseconds.
func formatInterval(d time.Duration) (string, error) {
	if d <= 0 {
		return "", fmt.Errorf("%w: non-positive window interval %s", ErrMalformedClause, d)
	}

	units := []struct {
		unit time.Duration
		name string
	}{
		{24 * time.Hour, "DAYS"},
		{time.Hour, "HOURS"},
		{time.Minute, "MINUTES"},
		{time.Second, "SECONDS"},
	}
	for _, u := range units {
		if d%u.unit == 0 {
			return fmt.Sprintf("%d %s", d/u.unit, u.name), nil
		}
	}
	if d%time.Millisecond != 0 {
		return "", fmt.Errorf("%w: window interval %s is finer than milliseconds", ErrMalformedClause, d)
	}
	return fmt.Sprintf("%d MILLISECONDS", d/time.Millisecond), nil
}
