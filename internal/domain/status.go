package domain

// Status is the lifecycle state of an export on the shared ledger.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusExchangePending   Status = "EXCHANGE_PENDING"
	StatusExchangeVerified  Status = "EXCHANGE_VERIFIED"
	StatusExchangeRejected  Status = "EXCHANGE_REJECTED"
	StatusLicensePending    Status = "LICENSE_PENDING"
	StatusLicenseApproved   Status = "LICENSE_APPROVED"
	StatusLicenseRejected   Status = "LICENSE_REJECTED"
	StatusQualityPending    Status = "QUALITY_PENDING"
	StatusQualityApproved   Status = "QUALITY_APPROVED"
	StatusQualityRejected   Status = "QUALITY_REJECTED"
	StatusContractPending   Status = "CONTRACT_PENDING"
	StatusContractApproved  Status = "CONTRACT_APPROVED"
	StatusContractRejected  Status = "CONTRACT_REJECTED"
	StatusBankDocPending    Status = "BANK_DOC_PENDING"
	StatusBankDocVerified   Status = "BANK_DOC_VERIFIED"
	StatusBankDocRejected   Status = "BANK_DOC_REJECTED"
	StatusFXPending         Status = "FX_PENDING"
	StatusFXApproved        Status = "FX_APPROVED"
	StatusFXRejected        Status = "FX_REJECTED"
	StatusCustomsPending    Status = "CUSTOMS_PENDING"
	StatusCustomsCleared    Status = "CUSTOMS_CLEARED"
	StatusCustomsRejected   Status = "CUSTOMS_REJECTED"
	StatusShipmentScheduled Status = "SHIPMENT_SCHEDULED"
	StatusShipped           Status = "SHIPPED"
	StatusArrived           Status = "ARRIVED"
	StatusDelivered         Status = "DELIVERED"
	StatusPaymentReceived   Status = "PAYMENT_RECEIVED"
	StatusCompleted         Status = "COMPLETED"
	StatusCancelled         Status = "CANCELLED"
)

// statusAliases maps legacy spellings still emitted by older org services to
// the canonical vocabulary. Aliases never leave the boundary; the engine and
// the ledger only ever see canonical values.
var statusAliases = map[string]Status{
	"PENDING":                 StatusExchangePending,
	"ECX_PENDING":             StatusExchangePending,
	"ECX_VERIFIED":            StatusExchangeVerified,
	"ECX_REJECTED":            StatusExchangeRejected,
	"ECTA_LICENSE_PENDING":    StatusLicensePending,
	"ECTA_APPROVED":           StatusLicenseApproved,
	"ECTA_QUALITY_PENDING":    StatusQualityPending,
	"QUALITY_CERTIFIED":       StatusQualityApproved,
	"ECTA_QUALITY_APPROVED":   StatusQualityApproved,
	"ECTA_CONTRACT_PENDING":   StatusContractPending,
	"ECTA_CONTRACT_APPROVED":  StatusContractApproved,
	"BANK_DOCUMENT_PENDING":   StatusBankDocPending,
	"BANK_DOCUMENT_VERIFIED":  StatusBankDocVerified,
	"FX_APPLICATION_PENDING":  StatusFXPending,
	"NBE_APPROVED":            StatusFXApproved,
	"EXPORT_CUSTOMS_PENDING":  StatusCustomsPending,
	"SHIPMENT_PENDING":        StatusShipmentScheduled,
	"FX_REPATRIATED":          StatusCompleted,
	"SETTLED":                 StatusCompleted,
}

var allStatuses = map[Status]struct{}{
	StatusDraft: {}, StatusExchangePending: {}, StatusExchangeVerified: {},
	StatusExchangeRejected: {}, StatusLicensePending: {}, StatusLicenseApproved: {},
	StatusLicenseRejected: {}, StatusQualityPending: {}, StatusQualityApproved: {},
	StatusQualityRejected: {}, StatusContractPending: {}, StatusContractApproved: {},
	StatusContractRejected: {}, StatusBankDocPending: {}, StatusBankDocVerified: {},
	StatusBankDocRejected: {}, StatusFXPending: {}, StatusFXApproved: {},
	StatusFXRejected: {}, StatusCustomsPending: {}, StatusCustomsCleared: {},
	StatusCustomsRejected: {}, StatusShipmentScheduled: {}, StatusShipped: {},
	StatusArrived: {}, StatusDelivered: {}, StatusPaymentReceived: {},
	StatusCompleted: {}, StatusCancelled: {},
}

// CanonicalStatus resolves raw status text, including legacy aliases, to a
// canonical Status. The second return is false for unknown vocabulary.
func CanonicalStatus(raw string) (Status, bool) {
	if _, ok := allStatuses[Status(raw)]; ok {
		return Status(raw), true
	}
	if s, ok := statusAliases[raw]; ok {
		return s, true
	}
	return "", false
}

// IsRejected reports whether the status is one of the per-stage rejection
// states that updateAndResubmit recovers from.
func (s Status) IsRejected() bool {
	switch s {
	case StatusExchangeRejected, StatusLicenseRejected, StatusQualityRejected,
		StatusContractRejected, StatusBankDocRejected, StatusFXRejected,
		StatusCustomsRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsPreShipment reports whether the export may still be cancelled by the
// originating bank. Everything strictly before shipment scheduling qualifies,
// including the per-stage rejection states.
func (s Status) IsPreShipment() bool {
	switch s {
	case StatusShipmentScheduled, StatusShipped, StatusArrived, StatusDelivered,
		StatusPaymentReceived, StatusCompleted, StatusCancelled:
		return false
	}
	return true
}
