package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// GateState is the outcome of an inventory sufficiency check.
type GateState int

const (
	GateClear GateState = iota
	GateNeedsConfirmation
)

func (s GateState) String() string {
	if s == GateNeedsConfirmation {
		return "NEEDS_CONFIRMATION"
	}
	return "CLEAR"
}

// gateEpsilon absorbs decimal noise when comparing projected stock to the minimum.
var gateEpsilon = decimal.New(1, -4)

// StockSnapshot is the stock position of one item in one warehouse.
type StockSnapshot struct {
	Current decimal.Decimal
	Minimum decimal.Decimal
}

// StockReader reads stock positions. A missing row is reported as (nil, nil).
type StockReader interface {
	Snapshot(ctx context.Context, itemCode, warehouseCode string) (*StockSnapshot, error)
}

// Shortfall describes the first line that failed the gate.
type Shortfall struct {
	Line          int             `json:"line"`
	ItemCode      string          `json:"item_code"`
	WarehouseCode string          `json:"warehouse_code"`
	Requested     decimal.Decimal `json:"requested_base_qty"`
	Current       decimal.Decimal `json:"current_qty"`
	Minimum       decimal.Decimal `json:"minimum_qty"`
	NoStockRecord bool            `json:"no_stock_record"`
}

func (s *Shortfall) Message() string {
	if s.NoStockRecord {
		return fmt.Sprintf("line %d: item %s has no stock record in warehouse %s; confirm to issue anyway",
			s.Line, s.ItemCode, s.WarehouseCode)
	}
	return fmt.Sprintf("line %d: issuing %s of item %s would take warehouse %s from %s below its minimum of %s; confirm to issue anyway",
		s.Line, s.Requested, s.ItemCode, s.WarehouseCode, s.Current, s.Minimum)
}

// GateResult carries the state and, when not clear, the offending line.
type GateResult struct {
	State     GateState
	Shortfall *Shortfall
}

// InventoryGate decides whether a quotation may be issued without confirmation.
// It never writes and is not re-evaluated inside the issuing transaction.
type InventoryGate struct {
	stock StockReader
	rates RateLookup
}

func NewInventoryGate(stock StockReader, rates RateLookup) *InventoryGate {
	return &InventoryGate{stock: stock, rates: rates}
}

// Check evaluates each line independently and stops at the first line whose requested
// base quantity would take stock below its minimum.
func (g *InventoryGate) Check(ctx context.Context, lines []LineRequest) (GateResult, error) {
	for i, l := range lines {
		ratio, err := g.rates.ConversionRate(ctx, l.ItemCode, l.UnitCode)
		if err != nil {
			return GateResult{}, err
		}
		requested := l.Quantity.Mul(ratio)

		snap, err := g.stock.Snapshot(ctx, l.ItemCode, l.WarehouseCode)
		if err != nil {
			return GateResult{}, err
		}
		if snap == nil {
			return GateResult{State: GateNeedsConfirmation, Shortfall: &Shortfall{
				Line: i + 1, ItemCode: l.ItemCode, WarehouseCode: l.WarehouseCode,
				Requested: requested, NoStockRecord: true,
			}}, nil
		}

		headroom := snap.Current.Sub(requested).Sub(snap.Minimum)
		if headroom.LessThan(gateEpsilon.Neg()) {
			return GateResult{State: GateNeedsConfirmation, Shortfall: &Shortfall{
				Line: i + 1, ItemCode: l.ItemCode, WarehouseCode: l.WarehouseCode,
				Requested: requested, Current: snap.Current, Minimum: snap.Minimum,
			}}, nil
		}
	}
	return GateResult{State: GateClear}, nil
}

type pgStockReader struct {
	db pgxQuerier
}

// NewStockReader reads stock positions from inventory_ledger.
func NewStockReader(db pgxQuerier) StockReader {
	return &pgStockReader{db: db}
}

func (r *pgStockReader) Snapshot(ctx context.Context, itemCode, warehouseCode string) (*StockSnapshot, error) {
	var s StockSnapshot
	err := r.db.QueryRow(ctx, `
		SELECT current_qty, minimum_qty
		FROM inventory_ledger
		WHERE item_code = $1 AND warehouse_code = $2
	`, itemCode, warehouseCode).Scan(&s.Current, &s.Minimum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stock for %s in %s: %w", itemCode, warehouseCode, err)
	}
	return &s, nil
}
