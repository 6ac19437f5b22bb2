// Package transport implements the execution-service contract over a
// streaming engine's HTTP and websocket endpoints. The compiler core never
// imports this package; it is injected where a real engine is in play.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/streamq-io/streamq/runtime/client"
	"github.com/streamq-io/streamq/schema"
)

const (
	pullPath   = "/query"
	streamPath = "/query-stream"
	infoPath   = "/info"

	requestIDHeader = "X-Request-Id"
)

// Config configures an Engine.
type Config struct {
	// BaseURL is the engine's HTTP endpoint, e.g. http://localhost:8088.
	BaseURL string
	// WSURL is the engine's websocket endpoint; derived from BaseURL when
	// empty.
	WSURL string
	// MinServerVersion gates CheckServerVersion; empty disables the gate.
	MinServerVersion string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger receives request-level debug logs; zap.NewNop when nil.
	Logger *zap.Logger
}

// Engine talks to a streaming engine. It satisfies client.ExecutionService.
type Engine struct {
	baseURL    string
	wsURL      string
	minVersion *goversion.Version
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates an engine transport from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("transport: BaseURL is required")
	}

	e := &Engine{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		wsURL:      cfg.WSURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if e.wsURL == "" {
		e.wsURL = deriveWSURL(e.baseURL)
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	if cfg.MinServerVersion != "" {
		v, err := goversion.NewVersion(cfg.MinServerVersion)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid minimum server version %q: %w", cfg.MinServerVersion, err)
		}
		e.minVersion = v
	}
	return e, nil
}

func deriveWSURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

type serverInfo struct {
	Version string `json:"version"`
}

// CheckServerVersion fetches the engine's advertised version and compares it
// against the configured minimum.
func (e *Engine) CheckServerVersion(ctx context.Context) error {
	if e.minVersion == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+infoPath, nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transport: info request returned %s", resp.Status)
	}

	var info serverInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("transport: decoding info response: %w", err)
	}

	actual, err := goversion.NewVersion(info.Version)
	if err != nil {
		return fmt.Errorf("transport: server reported unparsable version %q: %w", info.Version, err)
	}
	if actual.LessThan(e.minVersion) {
		return fmt.Errorf("transport: server version %s is below minimum %s", actual, e.minVersion)
	}

	e.logger.Debug("server version accepted", zap.String("version", info.Version))
	return nil
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Rows []client.Row `json:"rows"`
}

// ExecutePull posts the compiled text to the pull endpoint and returns the
// bounded snapshot.
func (e *Engine) ExecutePull(query string, meta *schema.EntityMetadata) ([]client.Row, error) {
	return e.ExecutePullAsync(context.Background(), query, meta)
}

// ExecutePullAsync is ExecutePull honoring ctx cancellation.
func (e *Engine) ExecutePullAsync(ctx context.Context, query string, meta *schema.EntityMetadata) ([]client.Row, error) {
	requestID := uuid.NewString()
	e.logger.Debug("pull query",
		zap.String("request_id", requestID),
		zap.String("stream", meta.Stream),
		zap.String("query", query))

	payload, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+pullPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transport: engine returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("transport: decoding pull response: %w", err)
	}
	if decoded.Rows == nil {
		decoded.Rows = []client.Row{}
	}

	e.logger.Debug("pull query complete",
		zap.String("request_id", requestID),
		zap.Int("rows", len(decoded.Rows)))
	return decoded.Rows, nil
}
