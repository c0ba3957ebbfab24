package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"order-backoffice/internal/app"
	"order-backoffice/internal/core"
)

type fakeQuotations struct {
	lastReq core.QuotationRequest
	lastTag core.DocumentTag
	result  *core.CreateResult
	err     error
}

func (f *fakeQuotations) CreateQuotation(ctx context.Context, req core.QuotationRequest, id core.Identity) (*core.CreateResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeQuotations) GetQuotation(ctx context.Context, tag core.DocumentTag, number int64) (*core.Quotation, error) {
	f.lastTag = tag
	h := core.QuotationHeader{Number: number, Tag: tag, CustomerRef: "1.1"}
	lines := []core.QuotationLine{{Seq: 1, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)}}
	return &core.Quotation{Header: h, Lines: lines, Totals: core.ComputeTotals(h, lines)}, nil
}

func (f *fakeQuotations) Tag() core.DocumentTag { return 7 }

type fakeAccounts struct {
	lastReq core.AccountRequest
}

func (f *fakeAccounts) CreateCustomerAccount(ctx context.Context, req core.AccountRequest, id core.Identity) (*core.AccountResult, error) {
	f.lastReq = req
	leaf := req.Parent.Child(4)
	return &core.AccountResult{Path: leaf, CustomerRef: leaf.Code(), Created: []core.AccountPath{leaf}}, nil
}

func (f *fakeAccounts) GetCustomerAccount(ctx context.Context, path core.AccountPath) (*core.CustomerAccount, error) {
	if path.Kol != 1 {
		return nil, core.ErrNotFound
	}
	return &core.CustomerAccount{Path: path, Level: core.AccountLevel(path.Depth()), Name: "Shop", CreatedBy: 1}, nil
}

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestCreateQuotation_MapsRequestAndResult(t *testing.T) {
	q := &fakeQuotations{result: &core.CreateResult{Number: 12, Message: "quotation 12 issued"}}
	svc := app.NewAppService(fakePinger{}, q, &fakeAccounts{})

	res, err := svc.CreateQuotation(context.Background(), app.CreateQuotationRequest{
		CustomerRef:            "1.1",
		Date:                   14030105,
		OverrideInventoryCheck: true,
		Lines: []app.QuotationLineInput{
			{ItemCode: "A", WarehouseCode: "W1", UnitCode: "PCS", Quantity: decimal.NewFromInt(3)},
		},
	}, core.Identity{UserID: 1})
	if err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}
	if res.DocumentNumber != 12 {
		t.Errorf("expected number 12, got %d", res.DocumentNumber)
	}
	if !q.lastReq.OverrideInventoryCheck || len(q.lastReq.Lines) != 1 || q.lastReq.Lines[0].ItemCode != "A" {
		t.Errorf("request not mapped: %+v", q.lastReq)
	}
}

func TestCreateQuotation_PassesEngineErrorThrough(t *testing.T) {
	want := &core.EngineError{Kind: core.KindAllocationConflict, Message: "resubmit"}
	svc := app.NewAppService(fakePinger{}, &fakeQuotations{err: want}, &fakeAccounts{})

	_, err := svc.CreateQuotation(context.Background(), app.CreateQuotationRequest{}, core.Identity{UserID: 1})
	if !errors.Is(err, core.ErrAllocationConflict) {
		t.Errorf("expected allocation conflict, got %v", err)
	}
}

func TestGetQuotation_DefaultsToConfiguredTag(t *testing.T) {
	q := &fakeQuotations{}
	svc := app.NewAppService(fakePinger{}, q, &fakeAccounts{})

	res, err := svc.GetQuotation(context.Background(), 0, 3)
	if err != nil {
		t.Fatalf("GetQuotation: %v", err)
	}
	if q.lastTag != 7 || res.Tag != 7 {
		t.Errorf("expected configured tag 7, got %d", q.lastTag)
	}
	if !res.Totals.Gross.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected gross 100, got %s", res.Totals.Gross)
	}
}

func TestCreateCustomerAccount_ParsesParentCode(t *testing.T) {
	acc := &fakeAccounts{}
	svc := app.NewAppService(fakePinger{}, &fakeQuotations{}, acc)

	res, err := svc.CreateCustomerAccount(context.Background(), app.CreateAccountRequest{
		ParentCode: "1.3", Level: 2, Name: "Shop",
	}, core.Identity{UserID: 1})
	if err != nil {
		t.Fatalf("CreateCustomerAccount: %v", err)
	}
	if acc.lastReq.Parent.Kol != 1 || acc.lastReq.Parent.IDs[0] != 3 || acc.lastReq.TargetLevel != core.Level2 {
		t.Errorf("request not mapped: %+v", acc.lastReq)
	}
	if res.AccountCode != "1.3.4" || res.Level != 2 {
		t.Errorf("unexpected result: %+v", res)
	}

	_, err = svc.CreateCustomerAccount(context.Background(), app.CreateAccountRequest{ParentCode: "x"}, core.Identity{UserID: 1})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for bad parent code, got %v", err)
	}
}

func TestGetCustomerAccount(t *testing.T) {
	svc := app.NewAppService(fakePinger{}, &fakeQuotations{}, &fakeAccounts{})

	res, err := svc.GetCustomerAccount(context.Background(), "1.3.4")
	if err != nil {
		t.Fatalf("GetCustomerAccount: %v", err)
	}
	if res.AccountCode != "1.3.4" || res.Level != 2 || res.Name != "Shop" {
		t.Errorf("unexpected result: %+v", res)
	}

	if _, err := svc.GetCustomerAccount(context.Background(), "2.1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.GetCustomerAccount(context.Background(), "1..2"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReloadReferenceData(t *testing.T) {
	a, b := &fakeReloader{}, &fakeReloader{}
	svc := app.NewAppService(fakePinger{}, &fakeQuotations{}, &fakeAccounts{}, a, b)
	if err := svc.ReloadReferenceData(context.Background()); err != nil {
		t.Fatalf("ReloadReferenceData: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected each reloader called once, got %d and %d", a.calls, b.calls)
	}

	failing := &fakeReloader{err: errors.New("redis down")}
	svc = app.NewAppService(fakePinger{}, &fakeQuotations{}, &fakeAccounts{}, failing)
	if err := svc.ReloadReferenceData(context.Background()); err == nil {
		t.Error("expected reload error")
	}
}

func TestHealth(t *testing.T) {
	if err := app.NewAppService(fakePinger{}, nil, nil).Health(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
	if err := app.NewAppService(fakePinger{err: errors.New("down")}, nil, nil).Health(context.Background()); err == nil {
		t.Error("expected unhealthy")
	}
}
