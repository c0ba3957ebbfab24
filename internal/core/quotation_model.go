package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentTag distinguishes independent numbering series of quotations.
type DocumentTag int

// Identity carries the already-authenticated claims of the caller.
type Identity struct {
	UserID         int
	Username       string
	DelegateUserID *int
}

// Delegate returns the delegate user id when the claim is present and positive.
func (id Identity) Delegate() (int, bool) {
	if id.DelegateUserID == nil || *id.DelegateUserID <= 0 {
		return 0, false
	}
	return *id.DelegateUserID, true
}

// QuotationRequest is the caller input for issuing a quotation.
type QuotationRequest struct {
	CustomerRef            string `validate:"required,max=64"`
	Date                   int    `validate:"required,yyyymmdd"`
	Notes                  string `validate:"max=2000"`
	Conditions             string `validate:"max=2000"`
	PaymentTermID          *int
	PriceListID            *int
	DiscountListID         *int
	VatApplicable          bool
	AwardCalculation       bool
	ShippingCost           decimal.Decimal
	HeaderDiscount         decimal.Decimal
	OverrideInventoryCheck bool
	Lines                  []LineRequest `validate:"required,min=1,dive"`
}

// LineRequest is one requested quotation line.
type LineRequest struct {
	ItemCode            string `validate:"required,max=64"`
	WarehouseCode       string `validate:"required,max=64"`
	UnitCode            string `validate:"required,max=32"`
	Quantity            decimal.Decimal
	UnitPrice           decimal.Decimal
	DiscountPercent     decimal.Decimal
	CashDiscountPercent decimal.Decimal
}

// CreateResult is returned by CreateQuotation. RequiresConfirmation is a normal
// outcome, not an error: nothing was written and the caller may resubmit with override.
type CreateResult struct {
	Number               int64
	RequiresConfirmation bool
	Shortfall            *Shortfall
	Message              string
}

// QuotationHeader is a persisted quotation header row.
type QuotationHeader struct {
	Number           int64
	Tag              DocumentTag
	Date             int
	CustomerRef      string
	Notes            string
	Conditions       string
	PaymentTermID    *int
	PriceListID      *int
	DiscountListID   *int
	VatApplicable    bool
	AwardCalculation bool
	ShippingCost     decimal.Decimal
	HeaderDiscount   decimal.Decimal
	VatAmount        decimal.Decimal
	CreatedBy        int
	CreatedByName    string
	CreatedAt        time.Time
}

// QuotationLine is a persisted quotation line row.
type QuotationLine struct {
	Seq                 int
	ItemCode            string
	WarehouseCode       string
	Quantity            decimal.Decimal
	UnitCode            string
	UnitPrice           decimal.Decimal
	DiscountPercent     decimal.Decimal
	CashDiscountPercent decimal.Decimal
	DiscountAmount      decimal.Decimal
	VatAmount           decimal.Decimal
	BaseQuantity        decimal.Decimal
}

// Quotation is the read model: header, lines and totals computed on read.
type Quotation struct {
	Header QuotationHeader
	Lines  []QuotationLine
	Totals Totals
}
