package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
)

// HTTPClient speaks JSON to a ledger gateway endpoint: POST /query for
// evaluations, POST /invoke for submissions. Business rejections come back
// as structured errors with a 4xx status and map onto the domain sentinels;
// everything else is transport and left retryable for the resilience
// gateway.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type gatewayRequest struct {
	Fn   string   `json:"fn"`
	Args []string `json:"args"`
}

type gatewayError struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return c.post(ctx, "/query", fn, args)
}

func (c *HTTPClient) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return c.post(ctx, "/invoke", fn, args)
}

func (c *HTTPClient) post(ctx context.Context, path, fn string, args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(gatewayRequest{Fn: fn, Args: args})
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger gateway %s: %w", fn, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return raw, nil
	}

	msg := string(raw)
	var ge gatewayError
	if json.Unmarshal(raw, &ge) == nil && ge.Error != "" {
		msg = ge.Error
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", domain.ErrLedgerConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, msg)
	default:
		return nil, fmt.Errorf("ledger gateway %s: status %d: %s", fn, resp.StatusCode, msg)
	}
}
