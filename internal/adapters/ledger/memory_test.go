package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

func mustSubmit(t *testing.T, l *MemoryLedger, fn string, record domain.ExportRecord) domain.ExportRecord {
	t.Helper()
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	out, err := l.Submit(context.Background(), fn, string(raw))
	if err != nil {
		t.Fatalf("%s: %v", fn, err)
	}
	var committed domain.ExportRecord
	if err := json.Unmarshal(out, &committed); err != nil {
		t.Fatal(err)
	}
	return committed
}

func draft(exportID string) domain.ExportRecord {
	return domain.ExportRecord{
		ExportID:         exportID,
		OriginatingOrgID: domain.OrgExporterBank,
		CoffeeType:       "Yirgacheffe",
		Quantity:         1500,
		Destination:      "Hamburg",
		EstimatedValue:   54000,
		Status:           domain.StatusDraft,
	}
}

func TestMemoryLedgerCreateAssignsVersionAndTimestamps(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.SetNowFn(func() time.Time { return now })

	committed := mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-1"))
	if committed.Version != 1 {
		t.Fatalf("version = %d, want 1", committed.Version)
	}
	if !committed.CreatedAt.Equal(now) || !committed.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not assigned: %+v", committed)
	}
}

func TestMemoryLedgerRejectsDuplicateCreate(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()
	mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-1"))

	raw, _ := json.Marshal(draft("EXP-1"))
	_, err := l.Submit(context.Background(), ports.LedgerFnCreateExport, string(raw))
	if !errors.Is(err, domain.ErrLedgerConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemoryLedgerPutRejectsStaleVersion(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()
	committed := mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-1"))

	// First writer wins and bumps the version.
	update := committed
	update.Status = domain.StatusExchangePending
	next := mustSubmit(t, l, ports.LedgerFnPutExport, update)
	if next.Version != 2 {
		t.Fatalf("version = %d, want 2", next.Version)
	}

	// A second writer still holding version 1 is rejected.
	stale := committed
	stale.Status = domain.StatusCancelled
	raw, _ := json.Marshal(stale)
	_, err := l.Submit(context.Background(), ports.LedgerFnPutExport, string(raw))
	if !errors.Is(err, domain.ErrLedgerConflict) {
		t.Fatalf("expected stale-version conflict, got %v", err)
	}

	// The losing write left no trace.
	out, err := l.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-1")
	if err != nil {
		t.Fatal(err)
	}
	var current domain.ExportRecord
	if err := json.Unmarshal(out, &current); err != nil {
		t.Fatal(err)
	}
	if current.Status != domain.StatusExchangePending || current.Version != 2 {
		t.Fatalf("stored record corrupted by rejected write: %+v", current)
	}
}

func TestMemoryLedgerPutPreservesCreatedAt(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.SetNowFn(func() time.Time { return now })
	committed := mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-1"))

	now = now.Add(time.Hour)
	update := committed
	update.Status = domain.StatusExchangePending
	next := mustSubmit(t, l, ports.LedgerFnPutExport, update)
	if !next.CreatedAt.Equal(committed.CreatedAt) {
		t.Fatalf("CreatedAt changed on update: %v -> %v", committed.CreatedAt, next.CreatedAt)
	}
	if !next.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", next.UpdatedAt, now)
	}
}

func TestMemoryLedgerGetMissingExport(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()

	_, err := l.Evaluate(context.Background(), ports.LedgerFnGetExport, "EXP-NONE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	raw, _ := json.Marshal(draft("EXP-NONE"))
	_, err = l.Submit(context.Background(), ports.LedgerFnPutExport, string(raw))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("put against missing export: expected not found, got %v", err)
	}
}

func TestMemoryLedgerListFilters(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()
	mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-A"))
	mustSubmit(t, l, ports.LedgerFnCreateExport, draft("EXP-B"))
	other := draft("EXP-C")
	other.OriginatingOrgID = domain.OrgCommercialBank
	other.Status = domain.StatusShipped
	mustSubmit(t, l, ports.LedgerFnCreateExport, other)

	list := func(filter string) []domain.ExportRecord {
		t.Helper()
		out, err := l.Evaluate(context.Background(), ports.LedgerFnListExports, filter)
		if err != nil {
			t.Fatalf("list %q: %v", filter, err)
		}
		var records []domain.ExportRecord
		if err := json.Unmarshal(out, &records); err != nil {
			t.Fatal(err)
		}
		return records
	}

	if got := list(`{"status":"DRAFT"}`); len(got) != 2 {
		t.Fatalf("status filter matched %d records, want 2", len(got))
	}
	if got := list(`{"originatingOrgId":"CommercialBankMSP"}`); len(got) != 1 || got[0].ExportID != "EXP-C" {
		t.Fatalf("org filter: %+v", got)
	}
	if got := list(`{"status":"SHIPPED","originatingOrgId":"ExporterBankMSP"}`); len(got) != 0 {
		t.Fatalf("combined filter should match nothing, got %+v", got)
	}
	if got := list(""); len(got) != 3 {
		t.Fatalf("empty filter should list everything, got %d", len(got))
	}
}

func TestMemoryLedgerUnknownFunctions(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger()

	if _, err := l.Evaluate(context.Background(), "DescribeExport", "EXP-1"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("unknown query: got %v", err)
	}
	if _, err := l.Submit(context.Background(), "DeleteExport", "{}"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("unknown transaction: got %v", err)
	}
}
