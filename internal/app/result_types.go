package app

import (
	"time"

	"github.com/shopspring/decimal"

	"order-backoffice/internal/core"
)

// QuotationResult is the outcome of CreateQuotation.
type QuotationResult struct {
	DocumentNumber                int64           `json:"document_number,omitempty"`
	RequiresInventoryConfirmation bool            `json:"requires_inventory_confirmation,omitempty"`
	Shortfall                     *core.Shortfall `json:"shortfall,omitempty"`
	Message                       string          `json:"message"`
}

// QuotationDetailResult is a quotation as shown to readers.
type QuotationDetailResult struct {
	Number           int64                 `json:"number"`
	Tag              int                   `json:"tag"`
	Date             int                   `json:"date"`
	CustomerRef      string                `json:"customer_ref"`
	Notes            string                `json:"notes"`
	Conditions       string                `json:"conditions"`
	VatApplicable    bool                  `json:"vat_applicable"`
	AwardCalculation bool                  `json:"award_calculation"`
	CreatedBy        int                   `json:"created_by"`
	CreatedByName    string                `json:"created_by_name"`
	CreatedAt        time.Time             `json:"created_at"`
	Lines            []QuotationLineResult `json:"lines"`
	Totals           TotalsResult          `json:"totals"`
}

type QuotationLineResult struct {
	Seq                 int             `json:"seq"`
	ItemCode            string          `json:"item_code"`
	WarehouseCode       string          `json:"warehouse_code"`
	UnitCode            string          `json:"unit_code"`
	Quantity            decimal.Decimal `json:"quantity"`
	BaseQuantity        decimal.Decimal `json:"base_quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	CashDiscountPercent decimal.Decimal `json:"cash_discount_percent"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	VatAmount           decimal.Decimal `json:"vat_amount"`
}

type TotalsResult struct {
	Gross          decimal.Decimal `json:"gross"`
	LineDiscount   decimal.Decimal `json:"line_discount"`
	Net            decimal.Decimal `json:"net"`
	HeaderDiscount decimal.Decimal `json:"header_discount"`
	Shipping       decimal.Decimal `json:"shipping"`
	Vat            decimal.Decimal `json:"vat"`
	Payable        decimal.Decimal `json:"payable"`
}

// AccountResult is the outcome of CreateCustomerAccount.
type AccountResult struct {
	AccountCode string   `json:"account_code"`
	CustomerRef string   `json:"customer_ref"`
	Level       int      `json:"level"`
	Created     []string `json:"created"`
}

// AccountDetailResult is one account node.
type AccountDetailResult struct {
	AccountCode string `json:"account_code"`
	Level       int    `json:"level"`
	Name        string `json:"name"`
	CreatedBy   int    `json:"created_by"`
}
