package app

import (
	"context"

	"order-backoffice/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// CreateQuotation issues a quotation for the authenticated caller. A result with
	// RequiresInventoryConfirmation set means nothing was written.
	CreateQuotation(ctx context.Context, req CreateQuotationRequest, id core.Identity) (*QuotationResult, error)

	// GetQuotation returns a quotation with its lines and totals. tag 0 means the configured series.
	GetQuotation(ctx context.Context, tag int, number int64) (*QuotationDetailResult, error)

	// CreateCustomerAccount allocates the account path down to the requested level.
	CreateCustomerAccount(ctx context.Context, req CreateAccountRequest, id core.Identity) (*AccountResult, error)

	// GetCustomerAccount looks up one account node by its dotted code.
	GetCustomerAccount(ctx context.Context, code string) (*AccountDetailResult, error)

	// ReloadReferenceData drops cached unit ratios, VAT configuration and settings.
	ReloadReferenceData(ctx context.Context) error

	// Health reports whether the database is reachable.
	Health(ctx context.Context) error
}
