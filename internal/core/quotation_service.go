package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"order-backoffice/internal/logging"
)

// QuotationService issues and reads sales quotations.
type QuotationService interface {
	// CreateQuotation runs the inventory gate, then allocates a number and persists the
	// quotation with its follow-up task in one serializable transaction.
	CreateQuotation(ctx context.Context, req QuotationRequest, id Identity) (*CreateResult, error)
	GetQuotation(ctx context.Context, tag DocumentTag, number int64) (*Quotation, error)
	// Tag is the numbering series new quotations are issued under.
	Tag() DocumentTag
}

// pgxQuerier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type quotationService struct {
	pool       *pgxpool.Pool
	tag        DocumentTag
	rates      RateLookup
	gate       *InventoryGate
	sequences  *SequenceAllocator
	persister  *DocumentPersister
	dispatcher *TaskDispatcher
	settings   SettingsResolver
	logger     logrus.FieldLogger
}

func NewQuotationService(pool *pgxpool.Pool, tag DocumentTag, rates RateLookup, stock StockReader, settings SettingsResolver, logger logrus.FieldLogger) QuotationService {
	return &quotationService{
		pool:       pool,
		tag:        tag,
		rates:      rates,
		gate:       NewInventoryGate(stock, rates),
		sequences:  NewSequenceAllocator(logger),
		persister:  NewDocumentPersister(),
		dispatcher: NewTaskDispatcher(logger),
		settings:   settings,
		logger:     logger,
	}
}

func (s *quotationService) Tag() DocumentTag { return s.tag }

// ── Issuance ─────────────────────────────────────────────────────────────────

func (s *quotationService) CreateQuotation(ctx context.Context, req QuotationRequest, id Identity) (*CreateResult, error) {
	const op = "CreateQuotation"

	if err := ValidateQuotationRequest(req, id); err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{
		"user_id":      id.UserID,
		"customer_ref": req.CustomerRef,
		"lines":        len(req.Lines),
		"tag":          s.tag,
	})

	if req.OverrideInventoryCheck {
		log.Info("inventory check overridden by caller")
	} else {
		gate, err := s.gate.Check(ctx, req.Lines)
		if err != nil {
			return nil, s.fail(op, req, err)
		}
		if gate.State == GateNeedsConfirmation {
			log.WithField("line", gate.Shortfall.Line).Info("inventory confirmation required")
			return &CreateResult{
				RequiresConfirmation: true,
				Shortfall:            gate.Shortfall,
				Message:              gate.Shortfall.Message(),
			}, nil
		}
	}

	// Reference data is resolved before a connection is pinned so that a locked
	// connection never waits on the pool for a second one.
	resolved, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, s.fail(op, req, err)
	}
	priority := s.settings.Int(ctx, settingTaskPriority, defaultTaskPriority)

	number, err := s.issue(ctx, req, id, resolved, priority)
	if err != nil {
		return nil, s.fail(op, req, err)
	}

	log.WithField("number", number).Info("quotation issued")
	return &CreateResult{
		Number:  number,
		Message: fmt.Sprintf("quotation %d issued", number),
	}, nil
}

func (s *quotationService) resolveLines(ctx context.Context, lines []LineRequest) ([]resolvedLine, error) {
	resolved := make([]resolvedLine, 0, len(lines))
	for _, l := range lines {
		ratio, err := s.rates.ConversionRate(ctx, l.ItemCode, l.UnitCode)
		if err != nil {
			return nil, err
		}
		vat, err := s.rates.VatInfo(ctx, l.ItemCode)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, resolvedLine{LineRequest: l, Ratio: ratio, Vat: vat})
	}
	return resolved, nil
}

// issue runs the transactional part. Deferred calls unwind as rollback, unlock, release.
func (s *quotationService) issue(ctx context.Context, req QuotationRequest, id Identity, lines []resolvedLine, priority int) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	scope := DocumentScope{Tag: s.tag}
	unlock, err := s.sequences.LockScope(ctx, conn, scope)
	if err != nil {
		return 0, err
	}
	defer unlock()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := s.sequences.AllocateNext(ctx, tx, scope)
	if err != nil {
		return 0, err
	}

	header := QuotationHeader{
		Number:           number,
		Tag:              s.tag,
		Date:             req.Date,
		CustomerRef:      req.CustomerRef,
		Notes:            req.Notes,
		Conditions:       req.Conditions,
		PaymentTermID:    req.PaymentTermID,
		PriceListID:      req.PriceListID,
		DiscountListID:   req.DiscountListID,
		VatApplicable:    req.VatApplicable,
		AwardCalculation: req.AwardCalculation,
		ShippingCost:     req.ShippingCost,
		HeaderDiscount:   req.HeaderDiscount,
		CreatedBy:        id.UserID,
		CreatedByName:    id.Username,
	}

	_, vatTotal, err := s.persister.Persist(ctx, tx, header, lines)
	if err != nil {
		return 0, err
	}
	header.VatAmount = vatTotal

	if _, err := s.dispatcher.Dispatch(ctx, tx, header, id, priority); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit quotation %d: %w", number, err)
	}
	return number, nil
}

// fail classifies err and logs it. Unexpected failures are logged with the full request.
func (s *quotationService) fail(op string, req QuotationRequest, err error) error {
	ee := ClassifyDBError(op, err)
	if ee.Kind == KindUnexpected {
		logging.LogError(s.logger, "quotation", op, "issue quotation", req, err)
	} else {
		s.logger.WithFields(logrus.Fields{
			"kind":       ee.Kind.String(),
			"constraint": ee.Constraint,
		}).WithError(err).Warn("quotation rejected")
	}
	return ee
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *quotationService) GetQuotation(ctx context.Context, tag DocumentTag, number int64) (*Quotation, error) {
	var h QuotationHeader
	var rawTag int
	err := s.pool.QueryRow(ctx, `
		SELECT number, tag, doc_date, customer_ref, notes, conditions,
		       payment_term_id, price_list_id, discount_list_id,
		       vat_applicable, award_calculation, shipping_cost, header_discount, vat_amount,
		       created_by, created_by_name, created_at
		FROM quotation_headers
		WHERE number = $1 AND tag = $2
	`, number, int(tag)).Scan(
		&h.Number, &rawTag, &h.Date, &h.CustomerRef, &h.Notes, &h.Conditions,
		&h.PaymentTermID, &h.PriceListID, &h.DiscountListID,
		&h.VatApplicable, &h.AwardCalculation, &h.ShippingCost, &h.HeaderDiscount, &h.VatAmount,
		&h.CreatedBy, &h.CreatedByName, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation %d (tag %d): %w", number, tag, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quotation %d: %w", number, err)
	}
	h.Tag = DocumentTag(rawTag)

	rows, err := s.pool.Query(ctx, `
		SELECT seq, item_code, warehouse_code, quantity, unit_code, unit_price,
		       discount_percent, cash_discount_percent, discount_amount, vat_amount, base_quantity
		FROM quotation_lines
		WHERE number = $1 AND tag = $2
		ORDER BY seq
	`, number, int(tag))
	if err != nil {
		return nil, fmt.Errorf("failed to query quotation lines: %w", err)
	}
	defer rows.Close()

	var lines []QuotationLine
	for rows.Next() {
		var l QuotationLine
		if err := rows.Scan(&l.Seq, &l.ItemCode, &l.WarehouseCode, &l.Quantity, &l.UnitCode, &l.UnitPrice,
			&l.DiscountPercent, &l.CashDiscountPercent, &l.DiscountAmount, &l.VatAmount, &l.BaseQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan quotation line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quotation lines: %w", err)
	}

	return &Quotation{Header: h, Lines: lines, Totals: ComputeTotals(h, lines)}, nil
}
