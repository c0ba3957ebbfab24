package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// resolvedLine is a requested line with its reference data already looked up.
type resolvedLine struct {
	LineRequest
	Ratio decimal.Decimal
	Vat   VatInfo
}

// DocumentPersister writes a quotation header and its lines inside the caller's transaction.
type DocumentPersister struct{}

func NewDocumentPersister() *DocumentPersister {
	return &DocumentPersister{}
}

// Persist inserts the header with a zero VAT aggregate, then each line in order, then
// stores the VAT aggregate. It returns the persisted lines and the VAT total.
func (p *DocumentPersister) Persist(ctx context.Context, tx pgx.Tx, h QuotationHeader, lines []resolvedLine) ([]QuotationLine, decimal.Decimal, error) {
	const op = "PersistQuotation"

	tag, err := tx.Exec(ctx, `
		INSERT INTO quotation_headers (
			number, tag, doc_date, customer_ref, notes, conditions,
			payment_term_id, price_list_id, discount_list_id,
			vat_applicable, award_calculation, shipping_cost, header_discount, vat_amount,
			created_by, created_by_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, $14, $15)
	`, h.Number, int(h.Tag), h.Date, h.CustomerRef, h.Notes, h.Conditions,
		h.PaymentTermID, h.PriceListID, h.DiscountListID,
		h.VatApplicable, h.AwardCalculation, h.ShippingCost, h.HeaderDiscount,
		h.CreatedBy, h.CreatedByName)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to insert quotation header %d: %w", h.Number, err)
	}
	if tag.RowsAffected() != 1 {
		return nil, decimal.Zero, persistenceError(op, "quotation header insert")
	}

	vatTotal := decimal.Zero
	persisted := make([]QuotationLine, 0, len(lines))
	for i, l := range lines {
		seq := i + 1

		// The stock row must exist for the line's foreign key; a new one starts at zero.
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_ledger (item_code, warehouse_code, current_qty, minimum_qty)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (item_code, warehouse_code) DO NOTHING
		`, l.ItemCode, l.WarehouseCode); err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to ensure stock record for line %d: %w", seq, err)
		}

		pricing := PriceLine(LineInput{
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			DiscountPercent:     l.DiscountPercent,
			CashDiscountPercent: l.CashDiscountPercent,
		}, h.VatApplicable, l.Vat)

		line := QuotationLine{
			Seq:                 seq,
			ItemCode:            l.ItemCode,
			WarehouseCode:       l.WarehouseCode,
			Quantity:            l.Quantity,
			UnitCode:            l.UnitCode,
			UnitPrice:           l.UnitPrice,
			DiscountPercent:     l.DiscountPercent,
			CashDiscountPercent: l.CashDiscountPercent,
			DiscountAmount:      pricing.TotalDiscount,
			VatAmount:           pricing.VatAmount,
			BaseQuantity:        l.Quantity.Mul(l.Ratio),
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO quotation_lines (
				number, tag, seq, item_code, warehouse_code, quantity, unit_code, unit_price,
				discount_percent, cash_discount_percent, discount_amount, vat_amount, base_quantity
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, h.Number, int(h.Tag), seq, line.ItemCode, line.WarehouseCode, line.Quantity, line.UnitCode, line.UnitPrice,
			line.DiscountPercent, line.CashDiscountPercent, line.DiscountAmount, line.VatAmount, line.BaseQuantity)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to insert quotation line %d: %w", seq, err)
		}
		if tag.RowsAffected() != 1 {
			return nil, decimal.Zero, persistenceError(op, fmt.Sprintf("quotation line %d insert", seq))
		}

		vatTotal = vatTotal.Add(pricing.VatAmount)
		persisted = append(persisted, line)
	}

	if h.VatApplicable && !vatTotal.IsZero() {
		tag, err := tx.Exec(ctx, `
			UPDATE quotation_headers SET vat_amount = $1
			WHERE number = $2 AND tag = $3
		`, vatTotal, h.Number, int(h.Tag))
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to store VAT total for quotation %d: %w", h.Number, err)
		}
		if tag.RowsAffected() != 1 {
			return nil, decimal.Zero, persistenceError(op, "quotation VAT update")
		}
	}

	return persisted, vatTotal, nil
}
