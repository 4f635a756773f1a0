package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

func TestHTTPClientRoutesQueriesAndInvocations(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotReq gatewayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"exportId":"EXP-1"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	out, err := c.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-1")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/query" {
		t.Fatalf("evaluate path = %s, want /query", gotPath)
	}
	if gotReq.Fn != ports.LedgerFnGetExport || len(gotReq.Args) != 1 || gotReq.Args[0] != "EXP-1" {
		t.Fatalf("unexpected request body: %+v", gotReq)
	}
	if string(out) != `{"exportId":"EXP-1"}` {
		t.Fatalf("unexpected payload %s", out)
	}

	if _, err := c.Submit(context.Background(), ports.LedgerFnPutExport, "{}"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/invoke" {
		t.Fatalf("submit path = %s, want /invoke", gotPath)
	}
}

func TestHTTPClientMapsBusinessStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"conflict", http.StatusConflict, domain.ErrLedgerConflict},
		{"bad request", http.StatusBadRequest, domain.ErrValidationFailed},
		{"unprocessable", http.StatusUnprocessableEntity, domain.ErrValidationFailed},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(gatewayError{Error: "rejected"})
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, time.Second)
			_, err := c.Submit(context.Background(), ports.LedgerFnPutExport, "{}")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d mapped to %v, want %v", tc.status, err, tc.want)
			}
			if domain.IsRetryable(err) || !domain.IsBusinessError(err) {
				t.Fatalf("business rejection must not be retryable: %v", err)
			}
		})
	}
}

func TestHTTPClientLeavesServerErrorsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-1")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if domain.IsBusinessError(err) {
		t.Fatalf("5xx must stay a transport error: %v", err)
	}
}
