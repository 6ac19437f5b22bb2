// Package client provides the typed query facade and its terminal
// operations.
package client

import (
	"context"

	"github.com/streamq-io/streamq/schema"
)

// Row is one raw result row as delivered by the execution service.
type Row = map[string]any

// ExecutionService is the injected collaborator that carries compiled text
// to the streaming engine. Connection lifecycle, pooling, retries, and
// batching live entirely behind this contract.
type ExecutionService interface {
	// ExecutePull runs a one-shot query and blocks until the bounded
	// snapshot is complete.
	ExecutePull(query string, meta *schema.EntityMetadata) ([]Row, error)

	// ExecutePullAsync runs a one-shot query, honoring ctx cancellation
	// while rows are in flight.
	ExecutePullAsync(ctx context.Context, query string, meta *schema.EntityMetadata) ([]Row, error)

	// ExecuteStream runs a continuous query, invoking onRow for every
	// delivered row until ctx is cancelled, onRow returns an error, or the
	// stream ends. Cancellation is cooperative: an in-flight row delivery is
	// never interrupted mid-row.
	ExecuteStream(ctx context.Context, query string, meta *schema.EntityMetadata, onRow func(Row) error) error
}
