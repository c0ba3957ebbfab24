package app

import (
	"context"
	"fmt"

	"order-backoffice/internal/core"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reloader is any cache with an explicit reload entry point.
type Reloader interface {
	Reload(ctx context.Context) error
}

type appService struct {
	db         Pinger
	quotations core.QuotationService
	accounts   core.AccountService
	reloaders  []Reloader
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	db Pinger,
	quotations core.QuotationService,
	accounts core.AccountService,
	reloaders ...Reloader,
) ApplicationService {
	return &appService{
		db:         db,
		quotations: quotations,
		accounts:   accounts,
		reloaders:  reloaders,
	}
}

// ── Quotations ───────────────────────────────────────────────────────────────

func (s *appService) CreateQuotation(ctx context.Context, req CreateQuotationRequest, id core.Identity) (*QuotationResult, error) {
	lines := make([]core.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.LineRequest{
			ItemCode:            l.ItemCode,
			WarehouseCode:       l.WarehouseCode,
			UnitCode:            l.UnitCode,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			DiscountPercent:     l.DiscountPercent,
			CashDiscountPercent: l.CashDiscountPercent,
		})
	}

	res, err := s.quotations.CreateQuotation(ctx, core.QuotationRequest{
		CustomerRef:            req.CustomerRef,
		Date:                   req.Date,
		Notes:                  req.Notes,
		Conditions:             req.Conditions,
		PaymentTermID:          req.PaymentTermID,
		PriceListID:            req.PriceListID,
		DiscountListID:         req.DiscountListID,
		VatApplicable:          req.VatApplicable,
		AwardCalculation:       req.AwardCalculation,
		ShippingCost:           req.ShippingCost,
		HeaderDiscount:         req.HeaderDiscount,
		OverrideInventoryCheck: req.OverrideInventoryCheck,
		Lines:                  lines,
	}, id)
	if err != nil {
		return nil, err
	}

	return &QuotationResult{
		DocumentNumber:                res.Number,
		RequiresInventoryConfirmation: res.RequiresConfirmation,
		Shortfall:                     res.Shortfall,
		Message:                       res.Message,
	}, nil
}

func (s *appService) GetQuotation(ctx context.Context, tag int, number int64) (*QuotationDetailResult, error) {
	docTag := core.DocumentTag(tag)
	if tag == 0 {
		docTag = s.quotations.Tag()
	}
	q, err := s.quotations.GetQuotation(ctx, docTag, number)
	if err != nil {
		return nil, err
	}

	h := q.Header
	out := &QuotationDetailResult{
		Number:           h.Number,
		Tag:              int(h.Tag),
		Date:             h.Date,
		CustomerRef:      h.CustomerRef,
		Notes:            h.Notes,
		Conditions:       h.Conditions,
		VatApplicable:    h.VatApplicable,
		AwardCalculation: h.AwardCalculation,
		CreatedBy:        h.CreatedBy,
		CreatedByName:    h.CreatedByName,
		CreatedAt:        h.CreatedAt,
		Lines:            make([]QuotationLineResult, 0, len(q.Lines)),
		Totals: TotalsResult{
			Gross:          q.Totals.Gross,
			LineDiscount:   q.Totals.LineDiscount,
			Net:            q.Totals.Net,
			HeaderDiscount: q.Totals.HeaderDiscount,
			Shipping:       q.Totals.Shipping,
			Vat:            q.Totals.Vat,
			Payable:        q.Totals.Payable,
		},
	}
	for _, l := range q.Lines {
		out.Lines = append(out.Lines, QuotationLineResult{
			Seq:                 l.Seq,
			ItemCode:            l.ItemCode,
			WarehouseCode:       l.WarehouseCode,
			UnitCode:            l.UnitCode,
			Quantity:            l.Quantity,
			BaseQuantity:        l.BaseQuantity,
			UnitPrice:           l.UnitPrice,
			DiscountPercent:     l.DiscountPercent,
			CashDiscountPercent: l.CashDiscountPercent,
			DiscountAmount:      l.DiscountAmount,
			VatAmount:           l.VatAmount,
		})
	}
	return out, nil
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (s *appService) CreateCustomerAccount(ctx context.Context, req CreateAccountRequest, id core.Identity) (*AccountResult, error) {
	parent, err := core.ParseAccountCode(req.ParentCode)
	if err != nil {
		return nil, &core.EngineError{Kind: core.KindValidation, Op: "CreateCustomerAccount", Message: err.Error()}
	}

	res, err := s.accounts.CreateCustomerAccount(ctx, core.AccountRequest{
		Parent:      parent,
		TargetLevel: core.AccountLevel(req.Level),
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
	}, id)
	if err != nil {
		return nil, err
	}

	created := make([]string, 0, len(res.Created))
	for _, p := range res.Created {
		created = append(created, p.Code())
	}
	return &AccountResult{
		AccountCode: res.Path.Code(),
		CustomerRef: res.CustomerRef,
		Level:       res.Path.Depth(),
		Created:     created,
	}, nil
}

func (s *appService) GetCustomerAccount(ctx context.Context, code string) (*AccountDetailResult, error) {
	path, err := core.ParseAccountCode(code)
	if err != nil {
		return nil, &core.EngineError{Kind: core.KindValidation, Op: "GetCustomerAccount", Message: err.Error()}
	}
	acc, err := s.accounts.GetCustomerAccount(ctx, path)
	if err != nil {
		return nil, err
	}
	return &AccountDetailResult{
		AccountCode: acc.Path.Code(),
		Level:       int(acc.Level),
		Name:        acc.Name,
		CreatedBy:   acc.CreatedBy,
	}, nil
}

// ── Operations ───────────────────────────────────────────────────────────────

func (s *appService) ReloadReferenceData(ctx context.Context) error {
	for _, r := range s.reloaders {
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("failed to reload reference data: %w", err)
		}
	}
	return nil
}

func (s *appService) Health(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
