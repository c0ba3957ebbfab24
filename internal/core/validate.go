package core

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate = newValidator()
	hundred  = decimal.NewFromInt(100)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
		return validDocumentDate(int(fl.Field().Int()))
	})
	return v
}

// validDocumentDate checks the YYYYMMDD shape only; the calendar is the caller's.
func validDocumentDate(d int) bool {
	year, month, day := d/10000, d/100%100, d%100
	return year >= 1000 && year <= 9999 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// validationMessages flattens validator errors into one caller-facing string.
func validationMessages(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.TrimPrefix(fe.Namespace(), "QuotationRequest.")
		field = strings.TrimPrefix(field, "AccountRequest.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must contain at least %s entries", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "yyyymmdd":
			msgs = append(msgs, fmt.Sprintf("%s must be a YYYYMMDD date", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func percentInRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// Decimal places of the stored NUMERIC columns; finer inputs are rejected, not rounded.
const (
	moneyScale    = 2
	quantityScale = 4
	percentScale  = 4
)

// fitsScale reports whether d has no significant digits beyond places decimals.
func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// ValidateQuotationRequest runs all structural checks that need no database access.
func ValidateQuotationRequest(req QuotationRequest, id Identity) error {
	const op = "ValidateQuotationRequest"
	if id.UserID <= 0 {
		return validationError(op, "creating user id is required")
	}
	if err := validate.Struct(req); err != nil {
		return validationError(op, "%s", validationMessages(err))
	}
	if req.ShippingCost.IsNegative() {
		return validationError(op, "shipping cost cannot be negative")
	}
	if req.HeaderDiscount.IsNegative() {
		return validationError(op, "header discount cannot be negative")
	}
	if !fitsScale(req.ShippingCost, moneyScale) {
		return validationError(op, "shipping cost allows at most %d decimal places", moneyScale)
	}
	if !fitsScale(req.HeaderDiscount, moneyScale) {
		return validationError(op, "header discount allows at most %d decimal places", moneyScale)
	}
	for i, l := range req.Lines {
		n := i + 1
		switch {
		case !l.Quantity.IsPositive():
			return validationError(op, "line %d: quantity must be greater than zero", n)
		case l.UnitPrice.IsNegative():
			return validationError(op, "line %d: unit price cannot be negative", n)
		case !percentInRange(l.DiscountPercent):
			return validationError(op, "line %d: discount percent must be between 0 and 100", n)
		case !percentInRange(l.CashDiscountPercent):
			return validationError(op, "line %d: cash discount percent must be between 0 and 100", n)
		case !fitsScale(l.Quantity, quantityScale):
			return validationError(op, "line %d: quantity allows at most %d decimal places", n, quantityScale)
		case !fitsScale(l.UnitPrice, moneyScale):
			return validationError(op, "line %d: unit price allows at most %d decimal places", n, moneyScale)
		case !fitsScale(l.DiscountPercent, percentScale):
			return validationError(op, "line %d: discount percent allows at most %d decimal places", n, percentScale)
		case !fitsScale(l.CashDiscountPercent, percentScale):
			return validationError(op, "line %d: cash discount percent allows at most %d decimal places", n, percentScale)
		}
	}
	return nil
}
