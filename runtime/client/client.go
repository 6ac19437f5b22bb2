package client

import (
	"reflect"
	"sync"

	"github.com/streamq-io/streamq/diagnostics"
	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/schema"
)

// Client owns the execution service and the metadata registry shared by the
// facades it creates.
type Client struct {
	svc      ExecutionService
	registry *schema.Registry
	strict   bool
}

// Option configures a Client.
type Option func(*Client)

// WithStrict enables strict-mode pre- and post-flight checks on every
// terminal operation.
func WithStrict() Option {
	return func(c *Client) { c.strict = true }
}

// WithRegistry supplies a shared metadata registry.
func WithRegistry(r *schema.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// NewClient creates a client over the given execution service.
func NewClient(svc ExecutionService, opts ...Option) *Client {
	c := &Client{svc: svc, registry: schema.NewRegistry()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryOption configures one entity facade.
type QueryOption func(*queryConfig)

type queryConfig struct {
	stream string
}

// WithStream overrides the derived backing stream name.
func WithStream(name string) QueryOption {
	return func(q *queryConfig) { q.stream = name }
}

// ForEntity creates the typed query facade for T. Metadata is derived on
// first use per type and cached in the client's registry.
func ForEntity[T any](c *Client, opts ...QueryOption) *Stream[T] {
	var cfg queryConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero T
	meta := c.registry.Lookup(reflect.TypeOf(zero), cfg.stream)

	return &Stream[T]{
		client: c,
		meta:   meta,
		root:   graph.NewSource(meta.Stream, meta.Entity),
		diag:   &diagState{},
	}
}

// diagState holds the report of the most recent compile. It is shared by
// every facade derived from the same root so chained values report alike.
type diagState struct {
	mu   sync.Mutex
	last *diagnostics.Recorder
}

func (d *diagState) store(rec *diagnostics.Recorder) {
	d.mu.Lock()
	d.last = rec
	d.mu.Unlock()
}

func (d *diagState) report() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return "no compile recorded"
	}
	return d.last.Report()
}
