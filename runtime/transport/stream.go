package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/streamq-io/streamq/runtime/client"
	"github.com/streamq-io/streamq/schema"
)

// ExecuteStream opens a websocket to the engine's streaming endpoint, sends
// the compiled text, and delivers every row message to onRow until ctx is
// cancelled, onRow fails, or the engine closes the stream. Cancellation is
// cooperative: a row already being delivered is completed first.
func (e *Engine) ExecuteStream(ctx context.Context, query string, meta *schema.EntityMetadata, onRow func(client.Row) error) error {
	requestID := uuid.NewString()
	e.logger.Debug("stream query",
		zap.String("request_id", requestID),
		zap.String("stream", meta.Stream),
		zap.String("query", query))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, e.wsURL+streamPath, nil)
	if err != nil {
		return fmt.Errorf("transport: dialing stream endpoint: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(queryRequest{Query: query}); err != nil {
		return fmt.Errorf("transport: sending stream query: %w", err)
	}

	// Closing the connection unblocks the read loop when ctx fires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isStreamEnd(err) {
				e.logger.Debug("stream ended", zap.String("request_id", requestID))
				return nil
			}
			return fmt.Errorf("transport: reading stream: %w", err)
		}

		var row client.Row
		if err := json.Unmarshal(message, &row); err != nil {
			return fmt.Errorf("transport: decoding stream row: %w", err)
		}
		if err := onRow(row); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func isStreamEnd(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, io.EOF)
}
