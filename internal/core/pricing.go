package core

import "github.com/shopspring/decimal"

// LineInput holds the monetary inputs of one line.
type LineInput struct {
	Quantity            decimal.Decimal
	UnitPrice           decimal.Decimal
	DiscountPercent     decimal.Decimal
	CashDiscountPercent decimal.Decimal
}

// LinePricing is the derived money of one line. All amounts are whole currency units
// except LineTotal, which keeps the precision of quantity × price.
type LinePricing struct {
	LineTotal          decimal.Decimal
	DiscountAmount     decimal.Decimal
	CashDiscountAmount decimal.Decimal
	TotalDiscount      decimal.Decimal
	VatAmount          decimal.Decimal
	NetAmount          decimal.Decimal
}

// roundCurrency rounds half away from zero to the smallest currency unit.
func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// PriceLine computes discounts and VAT for a line. The cash discount applies to the
// amount left after the regular discount. VAT is charged only when both the header
// flag and the item flag are set, and is not included in NetAmount.
func PriceLine(in LineInput, headerVat bool, vat VatInfo) LinePricing {
	lineTotal := in.Quantity.Mul(in.UnitPrice)
	discount := roundCurrency(in.DiscountPercent.Mul(lineTotal).Div(hundred))
	cash := roundCurrency(lineTotal.Sub(discount).Mul(in.CashDiscountPercent).Div(hundred))
	totalDiscount := discount.Add(cash)

	vatAmount := decimal.Zero
	if headerVat && vat.Applicable {
		vatAmount = roundCurrency(lineTotal.Sub(totalDiscount).Mul(vat.Rate).Div(hundred))
	}

	return LinePricing{
		LineTotal:          lineTotal,
		DiscountAmount:     discount,
		CashDiscountAmount: cash,
		TotalDiscount:      totalDiscount,
		VatAmount:          vatAmount,
		NetAmount:          lineTotal.Sub(totalDiscount),
	}
}

// Totals summarises a quotation for readers. Nothing here is persisted.
type Totals struct {
	Gross          decimal.Decimal
	LineDiscount   decimal.Decimal
	Net            decimal.Decimal
	HeaderDiscount decimal.Decimal
	Shipping       decimal.Decimal
	Vat            decimal.Decimal
	Payable        decimal.Decimal
}

// ComputeTotals aggregates persisted lines with the header adjustments.
func ComputeTotals(h QuotationHeader, lines []QuotationLine) Totals {
	t := Totals{
		Gross:          decimal.Zero,
		LineDiscount:   decimal.Zero,
		HeaderDiscount: h.HeaderDiscount,
		Shipping:       h.ShippingCost,
		Vat:            h.VatAmount,
	}
	for _, l := range lines {
		t.Gross = t.Gross.Add(l.Quantity.Mul(l.UnitPrice))
		t.LineDiscount = t.LineDiscount.Add(l.DiscountAmount)
	}
	t.Net = t.Gross.Sub(t.LineDiscount)
	t.Payable = t.Net.Sub(t.HeaderDiscount).Add(t.Shipping).Add(t.Vat)
	return t
}
