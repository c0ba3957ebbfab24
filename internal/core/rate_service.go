package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// VatInfo is the tax configuration of an item. Rate is a percentage.
type VatInfo struct {
	Applicable bool            `json:"applicable"`
	Rate       decimal.Decimal `json:"rate"`
}

// RateLookup resolves unit conversion ratios and item VAT configuration.
// Missing reference data is not an error; only database failures are.
type RateLookup interface {
	ConversionRate(ctx context.Context, itemCode, unitCode string) (decimal.Decimal, error)
	VatInfo(ctx context.Context, itemCode string) (VatInfo, error)
}

// RateService is the cached RateLookup over items and item_units.
type RateService struct {
	db     pgxQuerier
	ratios *RefCache[decimal.Decimal]
	vat    *RefCache[VatInfo]
}

// NewRateService constructs a RateService. Options apply to both underlying caches.
func NewRateService(db pgxQuerier, ttl time.Duration, options ...CacheOption) *RateService {
	s := &RateService{db: db}
	s.ratios = NewRefCache("unit_ratio", ttl, s.loadRatio, options...)
	s.vat = NewRefCache("item_vat", ttl, s.loadVat, options...)
	return s
}

const ratioKeySep = "|"

func (s *RateService) ConversionRate(ctx context.Context, itemCode, unitCode string) (decimal.Decimal, error) {
	return s.ratios.Get(ctx, itemCode+ratioKeySep+unitCode)
}

func (s *RateService) VatInfo(ctx context.Context, itemCode string) (VatInfo, error) {
	return s.vat.Get(ctx, itemCode)
}

// Invalidate drops the cached data of one item for every unit already looked up.
func (s *RateService) Invalidate(ctx context.Context, itemCode string, unitCodes ...string) {
	s.vat.Invalidate(ctx, itemCode)
	for _, u := range unitCodes {
		s.ratios.Invalidate(ctx, itemCode+ratioKeySep+u)
	}
}

// Reload clears both caches.
func (s *RateService) Reload(ctx context.Context) error {
	if err := s.ratios.Reload(ctx); err != nil {
		return err
	}
	return s.vat.Reload(ctx)
}

// loadRatio returns the stored ratio for (item, unit). The base unit and any unknown
// combination fall back to 1.
func (s *RateService) loadRatio(ctx context.Context, key string) (decimal.Decimal, error) {
	itemCode, unitCode, _ := strings.Cut(key, ratioKeySep)

	var baseUnit string
	var ratio decimal.NullDecimal
	err := s.db.QueryRow(ctx, `
		SELECT i.base_unit_code, iu.ratio
		FROM items i
		LEFT JOIN item_units iu ON iu.item_code = i.item_code AND iu.unit_code = $2
		WHERE i.item_code = $1
	`, itemCode, unitCode).Scan(&baseUnit, &ratio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, fmt.Errorf("failed to read conversion ratio for %s/%s: %w", itemCode, unitCode, err)
	}

	if ratio.Valid && ratio.Decimal.IsPositive() {
		return ratio.Decimal, nil
	}
	return decimal.NewFromInt(1), nil
}

func (s *RateService) loadVat(ctx context.Context, itemCode string) (VatInfo, error) {
	var info VatInfo
	var rate decimal.NullDecimal
	err := s.db.QueryRow(ctx, `
		SELECT vat_applicable, vat_rate
		FROM items
		WHERE item_code = $1
	`, itemCode).Scan(&info.Applicable, &rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VatInfo{Rate: decimal.Zero}, nil
		}
		return VatInfo{}, fmt.Errorf("failed to read VAT info for %s: %w", itemCode, err)
	}
	info.Rate = decimal.Zero
	if rate.Valid {
		info.Rate = rate.Decimal
	}
	return info, nil
}
