package validate

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamq-io/streamq/diagnostics"
	"github.com/streamq-io/streamq/query/compiler"
	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/schema"
)

type order struct {
	Id     string `streamq:"Id,key=1"`
	Region string `streamq:"Region,required"`
	Email  string `streamq:"Email,max=10"`
	Amount float64
}

type unrepresentable struct {
	Id   string `streamq:"Id,key=1"`
	Hook func() // no schema equivalent
}

func orderMeta(t *testing.T) *schema.EntityMetadata {
	t.Helper()
	meta := schema.Derive(reflect.TypeOf(order{}), "orders")
	require.True(t, meta.Valid)
	return meta
}

func TestPreFlightRejectsMissingMetadata(t *testing.T) {
	root := graph.NewSource("orders", "Order")

	err := PreFlight(root, nil, false, nil)
	require.ErrorIs(t, err, compiler.ErrInvalidMetadata)

	invalid := &schema.EntityMetadata{Entity: "Broken", Errors: []string{"boom"}}
	err = PreFlight(root, invalid, false, nil)
	require.ErrorIs(t, err, compiler.ErrInvalidMetadata)
}

func TestPreFlightRejectsNilGraph(t *testing.T) {
	err := PreFlight(nil, orderMeta(t), false, nil)
	require.ErrorIs(t, err, compiler.ErrNilGraph)
}

func TestPreFlightNamesRejectedOperators(t *testing.T) {
	meta := orderMeta(t)
	source := graph.NewSource("orders", "Order")

	cases := []struct {
		operator string
		root     graph.Node
	}{
		{"OrderBy", graph.OrderBy(source, graph.Col("Amount"), false)},
		{"Distinct", graph.Distinct(source)},
		{"Union", graph.Union(source, source)},
		{"Intersect", graph.Intersect(source, source)},
		{"Except", graph.Except(source, source)},
	}
	for _, tc := range cases {
		t.Run(tc.operator, func(t *testing.T) {
			err := PreFlight(tc.root, meta, false, nil)
			require.ErrorIs(t, err, compiler.ErrUnsupportedOperator)

			var ve *compiler.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tc.operator, ve.Operator)
		})
	}
}

func TestPreFlightRejectsOrderByAnywhereInChain(t *testing.T) {
	root := graph.Where(
		graph.OrderBy(graph.NewSource("orders", "Order"), graph.Col("Amount"), true),
		graph.Col("IsActive"),
	)
	err := PreFlight(root, orderMeta(t), false, nil)
	require.ErrorIs(t, err, compiler.ErrUnsupportedOperator)
}

func TestStrictPreFlightChecksFieldTypes(t *testing.T) {
	meta := schema.Derive(reflect.TypeOf(unrepresentable{}), "hooks")
	require.True(t, meta.Valid)
	root := graph.NewSource("hooks", "unrepresentable")

	// Lenient mode does not care.
	require.NoError(t, PreFlight(root, meta, false, nil))

	err := PreFlight(root, meta, true, nil)
	var ve *compiler.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "Hook")
}

func TestStrictPreFlightLogsComplexityOnly(t *testing.T) {
	// Complexity 1+1+3+5+2 = 12; high scores log, never reject.
	on := graph.Eq(graph.Qual("a", "Id"), graph.Qual("b", "Id"))
	root := graph.Join(
		graph.Select(
			graph.GroupBy(
				graph.Where(graph.NewSource("orders", "Order"), graph.Col("IsActive")),
				graph.Col("Region"),
			),
			graph.Count(),
		),
		graph.JoinInner, "shipments", "a", "b", on,
	)

	require.Equal(t, 12, Complexity(root))

	rec := diagnostics.NewRecorder()
	require.NoError(t, PreFlight(root, orderMeta(t), true, rec))
	require.Contains(t, rec.Report(), "complexity_score: 12")
}

func TestPostFlightRejectsNilRows(t *testing.T) {
	meta := orderMeta(t)

	err := PostFlight(nil, meta, false)
	require.Error(t, err)

	var nilRows []order
	err = PostFlight(nilRows, meta, false)
	require.Error(t, err)

	require.NoError(t, PostFlight([]order{}, meta, false))
}

func TestStrictPostFlightConstraints(t *testing.T) {
	meta := orderMeta(t)

	ok := []order{{Id: "1", Region: "EU", Email: "a@b.c", Amount: 10}}
	require.NoError(t, PostFlight(ok, meta, true))

	missingRequired := []order{{Id: "1", Email: "a@b.c"}}
	err := PostFlight(missingRequired, meta, true)
	var ve *compiler.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "Region")

	tooLong := []order{{Id: "1", Region: "EU", Email: "waytoolong@example.com"}}
	err = PostFlight(tooLong, meta, true)
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "max length")

	var nilRow []*order
	nilRow = append(nilRow, nil)
	err = PostFlight(nilRow, meta, true)
	require.ErrorAs(t, err, &ve)
}
