package domain

// Action is a requested lifecycle operation on an export.
type Action string

const (
	ActionCreateExport        Action = "createExport"
	ActionSubmitToExchange    Action = "submitToExchange"
	ActionVerifyLot           Action = "verifyLot"
	ActionRejectLot           Action = "rejectLot"
	ActionSubmitLicense       Action = "submitLicense"
	ActionApproveLicense      Action = "approveLicense"
	ActionRejectLicense       Action = "rejectLicense"
	ActionSubmitQuality       Action = "submitQuality"
	ActionApproveQuality      Action = "approveQuality"
	ActionRejectQuality       Action = "rejectQuality"
	ActionSubmitContract      Action = "submitContract"
	ActionApproveContract     Action = "approveContract"
	ActionRejectContract      Action = "rejectContract"
	ActionSubmitDocuments     Action = "submitDocuments"
	ActionVerifyDocuments     Action = "verifyDocuments"
	ActionRejectDocuments     Action = "rejectDocuments"
	ActionSubmitFX            Action = "submitFX"
	ActionApproveFX           Action = "approveFX"
	ActionRejectFX            Action = "rejectFX"
	ActionSubmitCustoms       Action = "submitCustoms"
	ActionClearCustoms        Action = "clearCustoms"
	ActionRejectCustoms       Action = "rejectCustoms"
	ActionScheduleShipment    Action = "scheduleShipment"
	ActionMarkShipped         Action = "markShipped"
	ActionMarkArrived         Action = "markArrived"
	ActionConfirmDelivery     Action = "confirmDelivery"
	ActionConfirmPayment      Action = "confirmPayment"
	ActionConfirmRepatriation Action = "confirmRepatriation"
	ActionUpdateAndResubmit   Action = "updateAndResubmit"
	ActionCancel              Action = "cancel"
)

// Edge is one row of the state table: who may move an export from a given
// status, and where the move lands.
type Edge struct {
	From       Status
	Action     Action
	To         Status
	Authorized Organization
}

type edgeKey struct {
	from   Status
	action Action
}

// transitionTable is the single authoritative edge set. The wildcard edges
// (updateAndResubmit from any rejected status, cancel from any pre-shipment
// status) are resolved in LookupEdge rather than materialized per status.
var transitionTable = map[edgeKey]Edge{}

func init() {
	rows := []Edge{
		{StatusDraft, ActionSubmitToExchange, StatusExchangePending, OrgExporterBank},
		{StatusExchangePending, ActionVerifyLot, StatusExchangeVerified, OrgExchange},
		{StatusExchangePending, ActionRejectLot, StatusExchangeRejected, OrgExchange},
		{StatusExchangeVerified, ActionSubmitLicense, StatusLicensePending, OrgExporterBank},
		{StatusLicensePending, ActionApproveLicense, StatusLicenseApproved, OrgCoffeeAuthority},
		{StatusLicensePending, ActionRejectLicense, StatusLicenseRejected, OrgCoffeeAuthority},
		{StatusLicenseApproved, ActionSubmitQuality, StatusQualityPending, OrgExporterBank},
		{StatusQualityPending, ActionApproveQuality, StatusQualityApproved, OrgCoffeeAuthority},
		{StatusQualityPending, ActionRejectQuality, StatusQualityRejected, OrgCoffeeAuthority},
		{StatusQualityApproved, ActionSubmitContract, StatusContractPending, OrgExporterBank},
		{StatusContractPending, ActionApproveContract, StatusContractApproved, OrgCoffeeAuthority},
		{StatusContractPending, ActionRejectContract, StatusContractRejected, OrgCoffeeAuthority},
		{StatusContractApproved, ActionSubmitDocuments, StatusBankDocPending, OrgExporterBank},
		{StatusBankDocPending, ActionVerifyDocuments, StatusBankDocVerified, OrgCommercialBank},
		{StatusBankDocPending, ActionRejectDocuments, StatusBankDocRejected, OrgCommercialBank},
		{StatusBankDocVerified, ActionSubmitFX, StatusFXPending, OrgCommercialBank},
		{StatusFXPending, ActionApproveFX, StatusFXApproved, OrgNationalBank},
		{StatusFXPending, ActionRejectFX, StatusFXRejected, OrgNationalBank},
		{StatusFXApproved, ActionSubmitCustoms, StatusCustomsPending, OrgExporterBank},
		{StatusCustomsPending, ActionClearCustoms, StatusCustomsCleared, OrgCustoms},
		{StatusCustomsPending, ActionRejectCustoms, StatusCustomsRejected, OrgCustoms},
		{StatusCustomsCleared, ActionScheduleShipment, StatusShipmentScheduled, OrgShippingLine},
		{StatusShipmentScheduled, ActionMarkShipped, StatusShipped, OrgShippingLine},
		{StatusShipped, ActionMarkArrived, StatusArrived, OrgShippingLine},
		{StatusArrived, ActionConfirmDelivery, StatusDelivered, OrgShippingLine},
		{StatusDelivered, ActionConfirmPayment, StatusPaymentReceived, OrgCommercialBank},
		{StatusPaymentReceived, ActionConfirmRepatriation, StatusCompleted, OrgNationalBank},
	}
	for _, e := range rows {
		transitionTable[edgeKey{e.From, e.Action}] = e
	}
}

// LookupEdge returns the edge for (from, action), resolving the resubmit and
// cancel wildcards. ok is false when no such edge exists.
func LookupEdge(from Status, action Action) (Edge, bool) {
	if e, ok := transitionTable[edgeKey{from, action}]; ok {
		return e, true
	}
	switch action {
	case ActionUpdateAndResubmit:
		if from.IsRejected() {
			return Edge{From: from, Action: action, To: StatusDraft, Authorized: OrgExporterBank}, true
		}
	case ActionCancel:
		if from.IsPreShipment() {
			return Edge{From: from, Action: action, To: StatusCancelled, Authorized: OrgExporterBank}, true
		}
	}
	return Edge{}, false
}

// AvailableActions lists the actions the given organization may take from
// the given status. With OrgUnknown it lists every outgoing action.
func AvailableActions(from Status, org Organization) []Action {
	var out []Action
	for key, e := range transitionTable {
		if key.from != from {
			continue
		}
		if org == OrgUnknown || e.Authorized == org {
			out = append(out, e.Action)
		}
	}
	if from.IsRejected() && (org == OrgUnknown || org == OrgExporterBank) {
		out = append(out, ActionUpdateAndResubmit)
	}
	if from.IsPreShipment() && (org == OrgUnknown || org == OrgExporterBank) {
		out = append(out, ActionCancel)
	}
	return out
}

// statusOwner is the organization expected to act next at each status; it is
// the room transition notifications are addressed to.
var statusOwner = map[Status]Organization{
	StatusDraft:             OrgExporterBank,
	StatusExchangePending:   OrgExchange,
	StatusExchangeVerified:  OrgExporterBank,
	StatusExchangeRejected:  OrgExporterBank,
	StatusLicensePending:    OrgCoffeeAuthority,
	StatusLicenseApproved:   OrgExporterBank,
	StatusLicenseRejected:   OrgExporterBank,
	StatusQualityPending:    OrgCoffeeAuthority,
	StatusQualityApproved:   OrgExporterBank,
	StatusQualityRejected:   OrgExporterBank,
	StatusContractPending:   OrgCoffeeAuthority,
	StatusContractApproved:  OrgExporterBank,
	StatusContractRejected:  OrgExporterBank,
	StatusBankDocPending:    OrgCommercialBank,
	StatusBankDocVerified:   OrgCommercialBank,
	StatusBankDocRejected:   OrgExporterBank,
	StatusFXPending:         OrgNationalBank,
	StatusFXApproved:        OrgExporterBank,
	StatusFXRejected:        OrgExporterBank,
	StatusCustomsPending:    OrgCustoms,
	StatusCustomsCleared:    OrgShippingLine,
	StatusCustomsRejected:   OrgExporterBank,
	StatusShipmentScheduled: OrgShippingLine,
	StatusShipped:           OrgShippingLine,
	StatusArrived:           OrgShippingLine,
	StatusDelivered:         OrgCommercialBank,
	StatusPaymentReceived:   OrgNationalBank,
	StatusCompleted:         OrgExporterBank,
	StatusCancelled:         OrgExporterBank,
}

// StatusOwner returns the organization responsible for acting at status s.
func StatusOwner(s Status) Organization {
	return statusOwner[s]
}
