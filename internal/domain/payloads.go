package domain

import (
	"encoding/json"
	"fmt"
)

// Payload is the typed input of one action. Implementations validate their
// own required fields and write their stage-specific fields onto the record;
// the engine never applies a payload that failed validation.
type Payload interface {
	Validate() error
	Apply(r *ExportRecord)
}

type SubmitToExchangePayload struct {
	LotNumber          string `json:"lotNumber"`
	WarehouseReceiptNo string `json:"warehouseReceiptNo"`
}

func (p SubmitToExchangePayload) Validate() error {
	if err := validateText("lot number", p.LotNumber, 50); err != nil {
		return err
	}
	return validateText("warehouse receipt", p.WarehouseReceiptNo, 50)
}

func (p SubmitToExchangePayload) Apply(r *ExportRecord) {
	r.LotNumber = p.LotNumber
	r.WarehouseReceiptNo = p.WarehouseReceiptNo
}

// EmptyPayload serves actions that carry no stage fields of their own.
type EmptyPayload struct{}

func (EmptyPayload) Validate() error     { return nil }
func (EmptyPayload) Apply(*ExportRecord) {}

// RejectPayload serves every per-stage rejection; the reason lands on the
// record and in the audit trail.
type RejectPayload struct {
	Reason string `json:"reason"`
}

func (p RejectPayload) Validate() error { return validateReason(p.Reason) }

func (p RejectPayload) Apply(r *ExportRecord) { r.RejectionReason = p.Reason }

type SubmitLicensePayload struct {
	LicenseNumber string `json:"licenseNumber"`
}

func (p SubmitLicensePayload) Validate() error {
	return validateText("license number", p.LicenseNumber, 50)
}

func (p SubmitLicensePayload) Apply(r *ExportRecord) { r.LicenseNumber = p.LicenseNumber }

type ApproveLicensePayload struct {
	CertificateNumber string `json:"certificateNumber"`
}

func (p ApproveLicensePayload) Validate() error {
	return validateText("certificate number", p.CertificateNumber, 50)
}

func (p ApproveLicensePayload) Apply(r *ExportRecord) { r.LicenseCertificate = p.CertificateNumber }

type SubmitQualityPayload struct {
	QualityGrade string  `json:"qualityGrade"`
	CuppingScore float64 `json:"cuppingScore"`
}

func (p SubmitQualityPayload) Validate() error {
	if err := validateText("quality grade", p.QualityGrade, 50); err != nil {
		return err
	}
	if p.CuppingScore < 0 || p.CuppingScore > 100 {
		return fmt.Errorf("%w: cupping score must be between 0 and 100", ErrValidationFailed)
	}
	return nil
}

func (p SubmitQualityPayload) Apply(r *ExportRecord) {
	r.QualityGrade = p.QualityGrade
	r.CuppingScore = p.CuppingScore
}

type ApproveQualityPayload struct {
	CertificateNumber string `json:"certificateNumber"`
}

func (p ApproveQualityPayload) Validate() error {
	return validateText("certificate number", p.CertificateNumber, 50)
}

func (p ApproveQualityPayload) Apply(r *ExportRecord) { r.QualityCertificate = p.CertificateNumber }

type SubmitContractPayload struct {
	ContractNumber string  `json:"contractNumber"`
	UnitPrice      float64 `json:"unitPrice"`
}

func (p SubmitContractPayload) Validate() error {
	if err := validateText("contract number", p.ContractNumber, 50); err != nil {
		return err
	}
	if p.UnitPrice <= 0 {
		return fmt.Errorf("%w: unit price must be positive", ErrValidationFailed)
	}
	return nil
}

func (p SubmitContractPayload) Apply(r *ExportRecord) {
	r.ContractNumber = p.ContractNumber
	r.UnitPrice = p.UnitPrice
}

type SubmitFXPayload struct {
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
}

func (p SubmitFXPayload) Validate() error {
	switch p.PaymentMethod {
	case "L/C", "CAD", "ADVANCE", "DP":
	default:
		return fmt.Errorf("%w: payment method must be one of L/C, CAD, ADVANCE, DP", ErrValidationFailed)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidationFailed)
	}
	return nil
}

func (p SubmitFXPayload) Apply(r *ExportRecord) {
	r.PaymentMethod = p.PaymentMethod
	r.PaymentAmount = p.Amount
}

type ApproveFXPayload struct {
	ApprovalID   string  `json:"approvalId"`
	ExchangeRate float64 `json:"exchangeRate"`
}

func (p ApproveFXPayload) Validate() error {
	if err := validateText("approval id", p.ApprovalID, 50); err != nil {
		return err
	}
	if p.ExchangeRate <= 0 {
		return fmt.Errorf("%w: exchange rate must be positive", ErrValidationFailed)
	}
	return nil
}

func (p ApproveFXPayload) Apply(r *ExportRecord) {
	r.FXApprovalID = p.ApprovalID
	r.ExchangeRate = p.ExchangeRate
}

type SubmitCustomsPayload struct {
	DeclarationNumber string `json:"declarationNumber"`
}

func (p SubmitCustomsPayload) Validate() error {
	return validateText("declaration number", p.DeclarationNumber, 50)
}

func (p SubmitCustomsPayload) Apply(r *ExportRecord) { r.CustomsDeclaration = p.DeclarationNumber }

type ScheduleShipmentPayload struct {
	VesselName   string `json:"vesselName"`
	VoyageNumber string `json:"voyageNumber"`
}

func (p ScheduleShipmentPayload) Validate() error {
	if err := validateText("vessel name", p.VesselName, 100); err != nil {
		return err
	}
	return validateText("voyage number", p.VoyageNumber, 50)
}

func (p ScheduleShipmentPayload) Apply(r *ExportRecord) {
	r.VesselName = p.VesselName
	r.VoyageNumber = p.VoyageNumber
}

type MarkShippedPayload struct {
	BillOfLading string `json:"billOfLading"`
}

func (p MarkShippedPayload) Validate() error {
	return validateText("bill of lading", p.BillOfLading, 50)
}

func (p MarkShippedPayload) Apply(r *ExportRecord) { r.BillOfLading = p.BillOfLading }

type ConfirmPaymentPayload struct {
	PaymentReference string  `json:"paymentReference"`
	Amount           float64 `json:"amount"`
}

func (p ConfirmPaymentPayload) Validate() error {
	if err := validateText("payment reference", p.PaymentReference, 50); err != nil {
		return err
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidationFailed)
	}
	return nil
}

func (p ConfirmPaymentPayload) Apply(r *ExportRecord) {
	r.PaymentReference = p.PaymentReference
	r.PaymentAmount = p.Amount
}

type ConfirmRepatriationPayload struct {
	RepatriatedAmount float64 `json:"repatriatedAmount"`
}

func (p ConfirmRepatriationPayload) Validate() error {
	if p.RepatriatedAmount <= 0 {
		return fmt.Errorf("%w: repatriated amount must be positive", ErrValidationFailed)
	}
	return nil
}

func (p ConfirmRepatriationPayload) Apply(r *ExportRecord) {
	r.RepatriatedAmount = p.RepatriatedAmount
}

// UpdateAndResubmitPayload carries corrected business fields after a
// rejection. Zero-valued fields keep their current value; the rejection
// reason is cleared on the record but stays in the audit trail.
type UpdateAndResubmitPayload struct {
	CoffeeType     string  `json:"coffeeType,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	Destination    string  `json:"destination,omitempty"`
	EstimatedValue float64 `json:"estimatedValue,omitempty"`
}

func (p UpdateAndResubmitPayload) Validate() error {
	if p.CoffeeType != "" {
		if err := validateText("coffee type", p.CoffeeType, 100); err != nil {
			return err
		}
	}
	if p.Destination != "" {
		if err := validateText("destination", p.Destination, 100); err != nil {
			return err
		}
	}
	if p.Quantity != 0 {
		if err := validateQuantity(p.Quantity); err != nil {
			return err
		}
	}
	if p.EstimatedValue != 0 {
		if err := validateEstimatedValue(p.EstimatedValue); err != nil {
			return err
		}
	}
	return nil
}

func (p UpdateAndResubmitPayload) Apply(r *ExportRecord) {
	if p.CoffeeType != "" {
		r.CoffeeType = p.CoffeeType
	}
	if p.Quantity != 0 {
		r.Quantity = p.Quantity
	}
	if p.Destination != "" {
		r.Destination = p.Destination
	}
	if p.EstimatedValue != 0 {
		r.EstimatedValue = p.EstimatedValue
	}
	r.RejectionReason = ""
}

type CancelPayload struct {
	Reason string `json:"reason"`
}

func (p CancelPayload) Validate() error { return validateReason(p.Reason) }

func (p CancelPayload) Apply(r *ExportRecord) { r.RejectionReason = p.Reason }

// PayloadForAction decodes raw JSON into the payload type of the action and
// validates it. Unknown actions and malformed or incomplete payloads fail
// with ErrValidationFailed before any side effect is attempted.
func PayloadForAction(action Action, raw json.RawMessage) (Payload, error) {
	var p Payload
	switch action {
	case ActionSubmitToExchange:
		p = &SubmitToExchangePayload{}
	case ActionVerifyLot, ActionApproveContract, ActionSubmitDocuments,
		ActionVerifyDocuments, ActionClearCustoms, ActionMarkArrived,
		ActionConfirmDelivery:
		p = &EmptyPayload{}
	case ActionRejectLot, ActionRejectLicense, ActionRejectQuality,
		ActionRejectContract, ActionRejectDocuments, ActionRejectFX,
		ActionRejectCustoms:
		p = &RejectPayload{}
	case ActionSubmitLicense:
		p = &SubmitLicensePayload{}
	case ActionApproveLicense:
		p = &ApproveLicensePayload{}
	case ActionSubmitQuality:
		p = &SubmitQualityPayload{}
	case ActionApproveQuality:
		p = &ApproveQualityPayload{}
	case ActionSubmitContract:
		p = &SubmitContractPayload{}
	case ActionSubmitFX:
		p = &SubmitFXPayload{}
	case ActionApproveFX:
		p = &ApproveFXPayload{}
	case ActionSubmitCustoms:
		p = &SubmitCustomsPayload{}
	case ActionScheduleShipment:
		p = &ScheduleShipmentPayload{}
	case ActionMarkShipped:
		p = &MarkShippedPayload{}
	case ActionConfirmPayment:
		p = &ConfirmPaymentPayload{}
	case ActionConfirmRepatriation:
		p = &ConfirmRepatriationPayload{}
	case ActionUpdateAndResubmit:
		p = &UpdateAndResubmitPayload{}
	case ActionCancel:
		p = &CancelPayload{}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidationFailed, action)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("%w: malformed payload for %s: %v", ErrValidationFailed, action, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
