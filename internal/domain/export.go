package domain

import "time"

// Organization identifies one of the seven consortium participants.
type Organization string

const (
	OrgUnknown         Organization = ""
	OrgExporterBank    Organization = "ExporterBankMSP"
	OrgExchange        Organization = "ExchangeMSP"
	OrgCoffeeAuthority Organization = "CoffeeAuthorityMSP"
	OrgNationalBank    Organization = "NationalBankMSP"
	OrgCustoms         Organization = "CustomsMSP"
	OrgCommercialBank  Organization = "CommercialBankMSP"
	OrgShippingLine    Organization = "ShippingLineMSP"
)

var allOrganizations = map[Organization]struct{}{
	OrgExporterBank: {}, OrgExchange: {}, OrgCoffeeAuthority: {},
	OrgNationalBank: {}, OrgCustoms: {}, OrgCommercialBank: {}, OrgShippingLine: {},
}

// KnownOrganization reports whether org is part of the consortium.
func KnownOrganization(org Organization) bool {
	_, ok := allOrganizations[org]
	return ok
}

// Actor is the identity context supplied by the authentication layer. It is
// trusted as-is by the engine.
type Actor struct {
	ID        string
	Org       Organization
	Role      string
	IPAddress string
	UserAgent string
}

// ExportRecord is the ledger-resident state of one coffee export. Version is
// the ledger's optimistic-concurrency token: every committed write increments
// it, and a write submitted against a stale version is rejected.
type ExportRecord struct {
	ExportID         string       `json:"exportId"`
	OriginatingOrgID Organization `json:"originatingOrgId"`
	CreatedBy        string       `json:"createdBy"`

	CoffeeType     string  `json:"coffeeType"`
	Quantity       float64 `json:"quantity"`
	Destination    string  `json:"destination"`
	EstimatedValue float64 `json:"estimatedValue"`

	Status  Status `json:"status"`
	Version int64  `json:"version"`

	// Stage-specific fields. Each is written by exactly one organization's
	// action and superseded only through updateAndResubmit.
	LotNumber          string  `json:"lotNumber,omitempty"`
	WarehouseReceiptNo string  `json:"warehouseReceiptNo,omitempty"`
	LicenseNumber      string  `json:"licenseNumber,omitempty"`
	LicenseCertificate string  `json:"licenseCertificate,omitempty"`
	QualityGrade       string  `json:"qualityGrade,omitempty"`
	CuppingScore       float64 `json:"cuppingScore,omitempty"`
	QualityCertificate string  `json:"qualityCertificate,omitempty"`
	ContractNumber     string  `json:"contractNumber,omitempty"`
	UnitPrice          float64 `json:"unitPrice,omitempty"`
	FXApprovalID       string  `json:"fxApprovalId,omitempty"`
	ExchangeRate       float64 `json:"exchangeRate,omitempty"`
	CustomsDeclaration string  `json:"customsDeclaration,omitempty"`
	VesselName         string  `json:"vesselName,omitempty"`
	VoyageNumber       string  `json:"voyageNumber,omitempty"`
	BillOfLading       string  `json:"billOfLading,omitempty"`
	PaymentMethod      string  `json:"paymentMethod,omitempty"`
	PaymentAmount      float64 `json:"paymentAmount,omitempty"`
	PaymentReference   string  `json:"paymentReference,omitempty"`
	RepatriatedAmount  float64 `json:"repatriatedAmount,omitempty"`
	RejectionReason    string  `json:"rejectionReason,omitempty"`

	Documents []Document `json:"documents,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentCategory groups ledger document references.
type DocumentCategory string

const (
	DocCategoryFinancial DocumentCategory = "financial"
	DocCategoryQuality   DocumentCategory = "quality"
	DocCategoryShipment  DocumentCategory = "shipment"
)

// KnownDocumentCategory reports whether c is a recognised category.
func KnownDocumentCategory(c DocumentCategory) bool {
	switch c {
	case DocCategoryFinancial, DocCategoryQuality, DocCategoryShipment:
		return true
	}
	return false
}

// Document is a content-addressed reference to an immutable blob. Versions
// per category are strictly increasing and never reused; deactivation keeps
// the row for history.
type Document struct {
	Category    DocumentCategory `json:"category"`
	ContentHash string           `json:"contentHash"`
	Version     int              `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
	IsActive    bool             `json:"isActive"`
	UploadedBy  string           `json:"uploadedBy,omitempty"`
}

// NextDocumentVersion returns the next version for a category, counting
// deactivated documents so versions stay gapless from 1 and are never reused.
func (r *ExportRecord) NextDocumentVersion(category DocumentCategory) int {
	max := 0
	for _, d := range r.Documents {
		if d.Category == category && d.Version > max {
			max = d.Version
		}
	}
	return max + 1
}

// ActiveDocuments returns the active documents for a category ordered as
// stored (versions ascend because appends are version-ordered).
func (r *ExportRecord) ActiveDocuments(category DocumentCategory) []Document {
	var out []Document
	for _, d := range r.Documents {
		if d.Category == category && d.IsActive {
			out = append(out, d)
		}
	}
	return out
}
