package ports

import "context"

// Ledger contract functions. The contract exposes a deliberately narrow
// surface; all transition logic lives in the orchestration core, the ledger
// enforces only existence and version checks.
const (
	LedgerFnCreateExport = "CreateExport"
	LedgerFnGetExport    = "GetExport"
	LedgerFnListExports  = "ListExports"
	LedgerFnPutExport    = "PutExport"
)

// LedgerClient submits state-changing calls and evaluates read-only queries
// against the shared ledger for a named contract. Implementations classify
// their failures: business rejections (conflict, not found) are returned as
// the matching domain sentinels, anything else is treated as transport and
// is eligible for retry by the gateway.
type LedgerClient interface {
	// Evaluate runs a read-only query.
	Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error)
	// Submit runs a state-changing transaction.
	Submit(ctx context.Context, fn string, args ...string) ([]byte, error)
}
