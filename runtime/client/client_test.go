package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/streamq-io/streamq/query/compiler"
	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/runtime/client"
	"github.com/streamq-io/streamq/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Order is the entity under test; its type name derives the orders stream.
type Order struct {
	Id       string `streamq:"Id,key=1"`
	Region   string
	Amount   float64
	IsActive bool
}

// fakeService records calls and plays back canned rows.
type fakeService struct {
	mu          sync.Mutex
	pullCalls   int
	streamCalls int
	lastQuery   string

	pullRows   []client.Row
	pullErr    error
	streamRows []client.Row
	streamErr  error
	// blockStream simulates a collaborator that never completes: the call
	// parks until the context fires.
	blockStream bool
}

func (f *fakeService) record(query string, stream bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	if stream {
		f.streamCalls++
	} else {
		f.pullCalls++
	}
}

func (f *fakeService) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pullCalls, f.streamCalls
}

func (f *fakeService) ExecutePull(query string, meta *schema.EntityMetadata) ([]client.Row, error) {
	f.record(query, false)
	return f.pullRows, f.pullErr
}

func (f *fakeService) ExecutePullAsync(ctx context.Context, query string, meta *schema.EntityMetadata) ([]client.Row, error) {
	f.record(query, false)
	return f.pullRows, f.pullErr
}

func (f *fakeService) ExecuteStream(ctx context.Context, query string, meta *schema.EntityMetadata, onRow func(client.Row) error) error {
	f.record(query, true)
	if f.blockStream {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, row := range f.streamRows {
		if err := onRow(row); err != nil {
			return err
		}
	}
	return f.streamErr
}

func newOrders(t *testing.T, svc client.ExecutionService, opts ...client.Option) *client.Stream[Order] {
	t.Helper()
	return client.ForEntity[Order](client.NewClient(svc, opts...))
}

func TestToQueryTextSimpleFilter(t *testing.T) {
	orders := newOrders(t, &fakeService{})

	got := orders.Where(graph.Col("IsActive")).ToQueryText(true)
	require.Equal(t, "SELECT * FROM orders WHERE (IsActive = true)", got)
}

func TestToQueryTextNegatedNullableBoolean(t *testing.T) {
	orders := newOrders(t, &fakeService{})

	got := orders.Where(graph.Not(graph.Col("IsProcessed").Value())).ToQueryText(true)
	require.Equal(t, "SELECT * FROM orders WHERE (IsProcessed = false)", got)
}

func TestToQueryTextNeverRaises(t *testing.T) {
	orders := newOrders(t, &fakeService{})

	broken := orders.Where(graph.Eq(
		graph.Tuple(graph.Col("Id")),
		graph.Tuple(graph.Col("A"), graph.Col("B")),
	))
	got := broken.ToQueryText(true)
	require.Contains(t, got, "-- compile error:")
}

func TestToQueryTextPushPullModes(t *testing.T) {
	orders := newOrders(t, &fakeService{})
	active := orders.Where(graph.Col("IsActive"))

	require.NotContains(t, active.ToQueryText(true), "EMIT CHANGES")
	require.Contains(t, active.ToQueryText(false), "EMIT CHANGES")
}

func TestChainingDoesNotMutateReceiver(t *testing.T) {
	orders := newOrders(t, &fakeService{})
	base := orders.Where(graph.Col("IsActive"))

	_ = base.GroupBy(graph.Col("Region")).Select(graph.Count())

	require.Equal(t, "SELECT * FROM orders WHERE (IsActive = true)", base.ToQueryText(true))
}

func TestAggregateQueryText(t *testing.T) {
	orders := newOrders(t, &fakeService{})

	got := orders.
		GroupBy(graph.Col("Region")).
		Select(graph.Col("Region"), graph.As(graph.Average(graph.Col("Amount")), "AvgAmount")).
		ToQueryText(true)
	require.Equal(t, "SELECT Region, AVG(Amount) AS AvgAmount FROM orders GROUP BY Region", got)
}

func TestToListDecodesRows(t *testing.T) {
	svc := &fakeService{pullRows: []client.Row{
		{"Id": "o-1", "Region": "EU", "Amount": 12.5, "IsActive": true},
		{"Id": "o-2", "Region": "US", "Amount": 7.25, "IsActive": true},
	}}
	orders := newOrders(t, svc)

	rows, err := orders.Where(graph.Col("IsActive")).ToList()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "o-1", rows[0].Id)
	require.Equal(t, 7.25, rows[1].Amount)

	pull, stream := svc.calls()
	require.Equal(t, 1, pull)
	require.Zero(t, stream)
	require.Equal(t, "SELECT * FROM orders WHERE (IsActive = true)", svc.lastQuery)
}

func TestToListAsyncHonorsContext(t *testing.T) {
	svc := &fakeService{pullRows: []client.Row{{"Id": "o-1"}}}
	orders := newOrders(t, svc)

	rows, err := orders.ToListAsync(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestToListNilResultsFailValidation(t *testing.T) {
	orders := newOrders(t, &fakeService{pullRows: nil})

	_, err := orders.ToList()
	var ve *compiler.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRejectedOperatorNeverReachesCollaborator(t *testing.T) {
	svc := &fakeService{}
	orders := newOrders(t, svc)

	_, err := orders.OrderBy(graph.Col("Amount"), false).ToList()
	require.ErrorIs(t, err, compiler.ErrUnsupportedOperator)
	var ve *compiler.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "OrderBy", ve.Operator)

	err = orders.Distinct().Subscribe(context.Background(), func(Order) error { return nil })
	require.ErrorIs(t, err, compiler.ErrUnsupportedOperator)

	pull, stream := svc.calls()
	require.Zero(t, pull)
	require.Zero(t, stream)
}

func TestExecutionErrorsAreAnnotated(t *testing.T) {
	svc := &fakeService{pullErr: errors.New("engine unavailable")}
	orders := newOrders(t, svc)

	_, err := orders.ToList()
	var ee *compiler.ExecutionError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "ToList", ee.Operation)
	require.Equal(t, "orders", ee.Stream)
	require.Equal(t, "Order", ee.Entity)
}

func TestSubscribeDeliversTypedRows(t *testing.T) {
	svc := &fakeService{streamRows: []client.Row{
		{"Id": "o-1", "Amount": 1.0},
		{"Id": "o-2", "Amount": 2.0},
	}}
	orders := newOrders(t, svc)

	var seen []Order
	err := orders.Subscribe(context.Background(), func(o Order) error {
		seen = append(seen, o)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.Equal(t, "o-2", seen[1].Id)
	require.Contains(t, svc.lastQuery, "EMIT CHANGES")
}

func TestSubscribeCallerCancellationIsSilent(t *testing.T) {
	svc := &fakeService{blockStream: true}
	orders := newOrders(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := orders.Subscribe(ctx, func(Order) error { return nil })
	require.NoError(t, err)
}

func TestForEachWithTimeoutSurfacesTimeoutError(t *testing.T) {
	svc := &fakeService{blockStream: true}
	orders := newOrders(t, svc)

	ctx := context.Background()
	started := time.Now()
	err := orders.ForEachWithTimeout(ctx, 500*time.Millisecond, func(Order) error { return nil })
	elapsed := time.Since(started)

	require.ErrorIs(t, err, compiler.ErrTimeout)
	var te *compiler.TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, 500*time.Millisecond, te.Limit)

	require.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)

	// The caller's own context stays unfired.
	require.NoError(t, ctx.Err())
}

func TestForEachWithTimeoutCallerCancellationStaysSilent(t *testing.T) {
	svc := &fakeService{blockStream: true}
	orders := newOrders(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := orders.ForEachWithTimeout(ctx, 10*time.Second, func(Order) error { return nil })
	require.NoError(t, err)
}

func TestDiagnosticsReportLastCompile(t *testing.T) {
	orders := newOrders(t, &fakeService{})
	active := orders.Where(graph.Col("IsActive"))

	require.Equal(t, "no compile recorded", active.Diagnostics())

	_ = active.ToQueryText(true)
	report := active.Diagnostics()
	require.Contains(t, report, "assemble")
	require.Contains(t, report, "mode: pull")
}

func TestStrictModePostFlight(t *testing.T) {
	type Account struct {
		Id    string `streamq:"Id,key=1"`
		Email string `streamq:"Email,required,max=5"`
	}
	svc := &fakeService{pullRows: []client.Row{{"Id": "1", "Email": "toolong@example.com"}}}
	c := client.NewClient(svc, client.WithStrict())
	accounts := client.ForEntity[Account](c)

	_, err := accounts.ToList()
	var ve *compiler.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "max length")
}

func TestWithStreamOverride(t *testing.T) {
	orders := client.ForEntity[Order](client.NewClient(&fakeService{}), client.WithStream("orders_eu"))
	require.Equal(t, "SELECT * FROM orders_eu", orders.ToQueryText(true))
}
