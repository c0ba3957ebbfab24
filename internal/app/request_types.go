package app

import (
	"github.com/shopspring/decimal"
)

// CreateQuotationRequest is the input for issuing a quotation. Decimals accept JSON strings or numbers.
type CreateQuotationRequest struct {
	CustomerRef            string               `json:"customer_ref"`
	Date                   int                  `json:"date"`
	Notes                  string               `json:"notes"`
	Conditions             string               `json:"conditions"`
	PaymentTermID          *int                 `json:"payment_term_id"`
	PriceListID            *int                 `json:"price_list_id"`
	DiscountListID         *int                 `json:"discount_list_id"`
	VatApplicable          bool                 `json:"vat_applicable"`
	AwardCalculation       bool                 `json:"award_calculation"`
	ShippingCost           decimal.Decimal      `json:"shipping_cost"`
	HeaderDiscount         decimal.Decimal      `json:"header_discount"`
	OverrideInventoryCheck bool                 `json:"override_inventory_check"`
	Lines                  []QuotationLineInput `json:"lines"`
}

// QuotationLineInput is a single line within a CreateQuotationRequest.
type QuotationLineInput struct {
	ItemCode            string          `json:"item_code"`
	WarehouseCode       string          `json:"warehouse_code"`
	UnitCode            string          `json:"unit_code"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	CashDiscountPercent decimal.Decimal `json:"cash_discount_percent"`
}

// CreateAccountRequest is the input for allocating a customer account.
// ParentCode is a dotted account code such as "1" or "1.3"; Level is the depth to create down to.
type CreateAccountRequest struct {
	ParentCode string `json:"parent_code"`
	Level      int    `json:"level"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}
