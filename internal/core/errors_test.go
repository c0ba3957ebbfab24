package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"order-backoffice/internal/core"
)

func TestClassifyDBError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantKind       core.ErrorKind
		wantSentinel   error
		wantConstraint string
		wantMessage    string
	}{
		{
			name:           "duplicate quotation number",
			err:            fmt.Errorf("failed to insert quotation header 7: %w", &pgconn.PgError{Code: "23505", ConstraintName: "quotation_headers_pkey"}),
			wantKind:       core.KindAllocationConflict,
			wantSentinel:   core.ErrAllocationConflict,
			wantConstraint: "quotation_headers_pkey",
			wantMessage:    "the quotation number was taken by another user; please resubmit",
		},
		{
			name:           "missing delegate user",
			err:            &pgconn.PgError{Code: "23503", ConstraintName: "tasks_assignee_fkey"},
			wantKind:       core.KindAllocationConflict,
			wantSentinel:   core.ErrAllocationConflict,
			wantConstraint: "tasks_assignee_fkey",
			wantMessage:    "the delegate user for the follow-up task does not exist",
		},
		{
			name:         "unknown unique constraint",
			err:          &pgconn.PgError{Code: "23505", ConstraintName: "something_else"},
			wantKind:     core.KindAllocationConflict,
			wantSentinel: core.ErrAllocationConflict,
			wantMessage:  "a record with the same key already exists",
		},
		{
			name:         "serialization failure",
			err:          &pgconn.PgError{Code: "40001"},
			wantKind:     core.KindAllocationConflict,
			wantSentinel: core.ErrAllocationConflict,
		},
		{
			name:         "cancelled",
			err:          fmt.Errorf("failed to begin transaction: %w", context.Canceled),
			wantKind:     core.KindUnexpected,
			wantSentinel: core.ErrUnexpected,
		},
		{
			name:         "anything else",
			err:          errors.New("boom"),
			wantKind:     core.KindUnexpected,
			wantSentinel: core.ErrUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := core.ClassifyDBError("Op", tt.err)
			if ee.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, ee.Kind)
			}
			if !errors.Is(ee, tt.wantSentinel) {
				t.Errorf("expected errors.Is(%v)", tt.wantSentinel)
			}
			if !errors.Is(ee, tt.err) {
				t.Error("expected the cause to remain reachable")
			}
			if tt.wantConstraint != "" && ee.Constraint != tt.wantConstraint {
				t.Errorf("expected constraint %q, got %q", tt.wantConstraint, ee.Constraint)
			}
			if tt.wantMessage != "" && ee.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, ee.Message)
			}
		})
	}
}

func TestClassifyDBError_PassesThroughEngineErrors(t *testing.T) {
	orig := core.ClassifyDBError("Inner", &pgconn.PgError{Code: "23505", ConstraintName: "customers_pkey"})
	got := core.ClassifyDBError("Outer", fmt.Errorf("wrapped: %w", orig))
	if got != orig {
		t.Errorf("expected the same engine error back, got %v", got)
	}
	if core.ClassifyDBError("Op", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
