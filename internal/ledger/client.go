// Package ledger is the read side of the NEAR RPC gateway: contract view
// calls and their typed decoding.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kirinyoku/nft-tix/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/kirinyoku/nft-tix/internal/ledger")

type Config struct {
	Endpoint      string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	// Finality is the block finality the views read at ("final" by default).
	Finality string
}

// Querier calls a view method and returns the raw bytes it produced.
type Querier interface {
	Query(ctx context.Context, contractID, methodName string, args map[string]any) ([]byte, error)
}

// Client is a JSON-RPC 2.0 client for the gateway's `query` method.
type Client struct {
	cfg        Config
	httpClient *http.Client
	idCounter  uint64
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  queryParams `json:"params"`
}

type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name"`
	ArgsBase64  string `json:"args_base64"`
}

type rpcResponse struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Result  *callResult  `json:"result,omitempty"`
	Error   *rpcErrorDTO `json:"error,omitempty"`
}

type callResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	Error       string   `json:"error,omitempty"`
}

type rpcErrorDTO struct {
	Code    int             `json:"code"`
	Name    string          `json:"name"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}

	if cfg.Finality == "" {
		cfg.Finality = "final"
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Query runs a call_function view on contractID. Transport failures and 5xx
// answers are retried with exponential backoff; RPC errors are returned as is.
func (c *Client) Query(
	ctx context.Context,
	contractID, methodName string,
	args map[string]any,
) ([]byte, error) {
	const op = "ledger.Client.Query"

	ctx, span := tracer.Start(ctx, "ledger.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("near.contract_id", contractID),
			attribute.String("near.method_name", methodName),
		),
	)
	defer span.End()

	if args == nil {
		args = map[string]any{}
	}

	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal args: %w", op, err)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.idCounter, 1),
		Method:  "query",
		Params: queryParams{
			RequestType: "call_function",
			Finality:    c.cfg.Finality,
			AccountID:   contractID,
			MethodName:  methodName,
			ArgsBase64:  base64.StdEncoding.EncodeToString(rawArgs),
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	start := time.Now()

	var (
		out      []byte
		attempts int
	)
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval

	err = backoff.Retry(func() error {
		attempts++
		res, err := c.do(ctx, body)
		if err != nil {
			return err
		}
		out = res
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx))

	metrics.ObserveLedgerQuery(methodName, err, time.Since(start))
	span.SetAttributes(attribute.Int("near.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "view call failed")
		return nil, fmt.Errorf("%s: %s.%s: %w: %w", op, contractID, methodName, ErrUnavailable, err)
	}

	return out, nil
}

func (c *Client) do(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respData, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(respData, 256)}
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		// the gateway still answers JSON-RPC errors with 4xx; prefer those
		var rpcResp rpcResponse
		if json.Unmarshal(respData, &rpcResp) == nil && rpcResp.Error != nil {
			return nil, backoff.Permanent(toRPCError(rpcResp.Error))
		}
		return nil, backoff.Permanent(&StatusError{StatusCode: httpResp.StatusCode, Body: truncate(respData, 256)})
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respData, &rpcResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("unmarshaling response: %w", err))
	}

	if rpcResp.Error != nil {
		return nil, backoff.Permanent(toRPCError(rpcResp.Error))
	}

	if rpcResp.Result == nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: empty result", ErrMalformedResult))
	}

	if rpcResp.Result.Error != "" {
		return nil, backoff.Permanent(&RPCError{Name: "CONTRACT_EXECUTION_ERROR", Message: rpcResp.Result.Error})
	}

	out := make([]byte, len(rpcResp.Result.Result))
	for i, v := range rpcResp.Result.Result {
		if v < 0 || v > 255 {
			return nil, backoff.Permanent(fmt.Errorf("%w: byte %d out of range", ErrMalformedResult, v))
		}
		out[i] = byte(v)
	}

	return out, nil
}

func toRPCError(e *rpcErrorDTO) *RPCError {
	data := string(e.Data)

	var s string
	if json.Unmarshal(e.Data, &s) == nil {
		data = s
	}

	return &RPCError{
		Code:    e.Code,
		Name:    e.Name,
		Message: e.Message,
		Data:    data,
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
