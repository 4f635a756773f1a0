package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cafetrace/exportflow/internal/adapters/blob"
	"github.com/cafetrace/exportflow/internal/adapters/cache"
	"github.com/cafetrace/exportflow/internal/adapters/events"
	"github.com/cafetrace/exportflow/internal/adapters/ledger"
	"github.com/cafetrace/exportflow/internal/application"
	"github.com/cafetrace/exportflow/internal/domain"
)

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *memAudit) Append(_ context.Context, entry domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) Query(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range a.entries {
		if filter.ExportID != "" && e.ExportID != filter.ExportID {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (a *memAudit) DeleteExpired(context.Context, time.Time, time.Duration, time.Duration) (int64, error) {
	return 0, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := events.NewHub(logger)
	svc := application.NewService(application.Dependencies{
		Ledger:   ledger.NewMemoryLedger(),
		Cache:    cache.NewMemoryCache(),
		Audit:    &memAudit{},
		Notifier: hub,
		Blobs:    blob.NewMemoryStore(),
		Logger:   logger,
	})
	srv := httptest.NewServer(NewRouter(NewHandler(svc, hub, logger)))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url string, org domain.Organization, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if org != domain.OrgUnknown {
		req.Header.Set("X-Actor-Id", "user-"+string(org))
		req.Header.Set("X-Actor-Org", string(org))
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, envelope
}

const createBody = `{"export_id":"EXP-10","coffee_type":"Yirgacheffe","quantity":1500,"destination":"Hamburg","estimated_value":54000}`

func TestRouterCreateAndFetchExport(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, envelope := doRequest(t, http.MethodPost, srv.URL+"/v1/exports", domain.OrgExporterBank, createBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, envelope)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("missing X-Request-Id header")
	}
	var record domain.ExportRecord
	if err := json.Unmarshal(envelope["data"], &record); err != nil {
		t.Fatal(err)
	}
	if record.ExportID != "EXP-10" || record.Status != domain.StatusDraft {
		t.Fatalf("unexpected record: %+v", record)
	}

	resp, envelope = doRequest(t, http.MethodGet, srv.URL+"/v1/exports/EXP-10", domain.OrgUnknown, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(envelope["data"], &record); err != nil {
		t.Fatal(err)
	}
	if record.OriginatingOrgID != domain.OrgExporterBank {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestRouterRejectsAnonymousWrites(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, envelope := doRequest(t, http.MethodPost, srv.URL+"/v1/exports", domain.OrgUnknown, createBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if string(envelope["code"]) != `"VALIDATION_ERROR"` {
		t.Fatalf("code = %s", envelope["code"])
	}
}

func TestRouterApplyActionAndErrorMapping(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/v1/exports", domain.OrgExporterBank, createBody)

	resp, envelope := doRequest(t, http.MethodPost,
		srv.URL+"/v1/exports/EXP-10/actions/submitToExchange", domain.OrgExporterBank,
		`{"lotNumber":"LOT-7","warehouseReceiptNo":"WR-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply status = %d, body %v", resp.StatusCode, envelope)
	}
	var record domain.ExportRecord
	if err := json.Unmarshal(envelope["data"], &record); err != nil {
		t.Fatal(err)
	}
	if record.Status != domain.StatusExchangePending || record.Version != 2 {
		t.Fatalf("unexpected record after apply: %+v", record)
	}

	// Same action again is no longer a legal edge.
	resp, envelope = doRequest(t, http.MethodPost,
		srv.URL+"/v1/exports/EXP-10/actions/submitToExchange", domain.OrgExporterBank,
		`{"lotNumber":"LOT-7","warehouseReceiptNo":"WR-1"}`)
	if resp.StatusCode != http.StatusConflict || string(envelope["code"]) != `"INVALID_TRANSITION"` {
		t.Fatalf("status = %d, code = %s", resp.StatusCode, envelope["code"])
	}

	// Wrong organization for a legal edge.
	resp, envelope = doRequest(t, http.MethodPost,
		srv.URL+"/v1/exports/EXP-10/actions/verifyLot", domain.OrgCustoms, "")
	if resp.StatusCode != http.StatusConflict || string(envelope["code"]) != `"INVALID_TRANSITION"` {
		t.Fatalf("status = %d, code = %s", resp.StatusCode, envelope["code"])
	}

	resp, envelope = doRequest(t, http.MethodGet, srv.URL+"/v1/exports/EXP-404", domain.OrgUnknown, "")
	if resp.StatusCode != http.StatusNotFound || string(envelope["code"]) != `"NOT_FOUND"` {
		t.Fatalf("status = %d, code = %s", resp.StatusCode, envelope["code"])
	}
}

func TestRouterListRequiresExactlyOneFilter(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/v1/exports", domain.OrgExporterBank, createBody)

	resp, envelope := doRequest(t, http.MethodGet, srv.URL+"/v1/exports?status=DRAFT", domain.OrgUnknown, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var records []domain.ExportRecord
	if err := json.Unmarshal(envelope["data"], &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/v1/exports", domain.OrgUnknown, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing filter: status = %d, want 400", resp.StatusCode)
	}
	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/v1/exports?status=DRAFT&org=ExporterBankMSP", domain.OrgUnknown, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("double filter: status = %d, want 400", resp.StatusCode)
	}
}

func TestRouterDocumentRoundTrip(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/v1/exports", domain.OrgExporterBank, createBody)

	resp, envelope := doRequest(t, http.MethodPost,
		srv.URL+"/v1/exports/EXP-10/documents?category=quality", domain.OrgExporterBank, "certificate scan")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add document status = %d, body %v", resp.StatusCode, envelope)
	}
	var doc domain.Document
	if err := json.Unmarshal(envelope["data"], &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Version != 1 || !doc.IsActive {
		t.Fatalf("unexpected document: %+v", doc)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/exports/EXP-10/documents/quality/1", nil)
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	data, _ := io.ReadAll(getResp.Body)
	if getResp.StatusCode != http.StatusOK || string(data) != "certificate scan" {
		t.Fatalf("get document: status %d, body %q", getResp.StatusCode, data)
	}
}

func TestRouterHealthEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d", path, resp.StatusCode)
		}
	}
}
