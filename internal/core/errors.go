package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies failures surfaced by the issuance engine.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindAllocationConflict
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindAllocationConflict:
		return "ALLOCATION_CONFLICT"
	case KindPersistence:
		return "PERSISTENCE_FAILURE"
	default:
		return "UNEXPECTED"
	}
}

// Sentinels matched with errors.Is against any *EngineError of the same kind.
var (
	ErrValidation         = errors.New("validation failed")
	ErrAllocationConflict = errors.New("allocation conflict")
	ErrPersistence        = errors.New("persistence failure")
	ErrUnexpected         = errors.New("unexpected failure")

	ErrNotFound = errors.New("not found")
)

const genericFailureMessage = "an unexpected error occurred; the request was not saved"

// EngineError is the typed error returned at the engine boundary.
// Message is safe to show to callers; Err keeps the low-level cause for logs.
type EngineError struct {
	Kind       ErrorKind
	Op         string
	Message    string
	Constraint string
	Err        error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *EngineError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *EngineError) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindAllocationConflict:
		return ErrAllocationConflict
	case KindPersistence:
		return ErrPersistence
	default:
		return ErrUnexpected
	}
}

func validationError(op, format string, args ...any) *EngineError {
	return &EngineError{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(op, what string) *EngineError {
	return &EngineError{
		Kind:    KindPersistence,
		Op:      op,
		Message: "the document could not be saved; please resubmit",
		Err:     fmt.Errorf("%s affected no rows", what),
	}
}

func conflictError(op, constraint, message string, err error) *EngineError {
	return &EngineError{Kind: KindAllocationConflict, Op: op, Message: message, Constraint: constraint, Err: err}
}

// constraintMessages maps schema constraint names to caller-facing messages.
var constraintMessages = map[string]string{
	"quotation_headers_pkey":       "the quotation number was taken by another user; please resubmit",
	"quotation_lines_pkey":         "duplicate line sequence in quotation",
	"quotation_lines_header_fkey":  "quotation header is missing for its lines",
	"quotation_lines_item_fkey":    "item code does not exist",
	"quotation_lines_unit_fkey":    "unit code does not exist",
	"quotation_lines_stock_fkey":   "no inventory record exists for this item and warehouse",
	"inventory_ledger_item_fkey":   "item code does not exist",
	"tasks_assignee_fkey":          "the delegate user for the follow-up task does not exist",
	"tasks_originator_fkey":        "the creating user does not exist",
	"tasks_document_fkey":          "follow-up task references a missing quotation",
	"customer_accounts_path_key":   "the account number was taken by another user; please resubmit",
	"customer_accounts_group_fkey": "account group (kol) does not exist",
	"customers_pkey":               "a customer with this account code already exists",
	"customers_account_fkey":       "customer account does not exist",
}

// ClassifyDBError converts an error raised inside a transaction into an *EngineError.
// Errors that are already classified pass through unchanged.
func ClassifyDBError(op string, err error) *EngineError {
	if err == nil {
		return nil
	}

	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			msg, ok := constraintMessages[pgErr.ConstraintName]
			if !ok {
				if pgErr.Code == "23505" {
					msg = "a record with the same key already exists"
				} else {
					msg = "a referenced record does not exist"
				}
			}
			return conflictError(op, pgErr.ConstraintName, msg, err)
		case "40001", "40P01":
			return conflictError(op, "", "the data was changed by a concurrent request; please resubmit", err)
		case "23514", "22003":
			return conflictError(op, pgErr.ConstraintName, "a value is outside the allowed range", err)
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &EngineError{Kind: KindUnexpected, Op: op, Message: "the request was cancelled before it completed", Err: err}
	}

	return &EngineError{Kind: KindUnexpected, Op: op, Message: genericFailureMessage, Err: err}
}
