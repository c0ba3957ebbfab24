package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"order-backoffice/internal/app"
	"order-backoffice/internal/core"
)

// ServiceFactory builds the ApplicationService on demand so that --help never touches the database.
// The returned cleanup releases whatever the service holds.
type ServiceFactory func(ctx context.Context) (app.ApplicationService, func(), error)

// NewRootCommand wires every subcommand under a single root.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "app",
		Short:         "Back-office quotation and customer account tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	quotation := &cobra.Command{Use: "quotation", Short: "Issue and inspect quotations"}
	quotation.AddCommand(newQuotationCreateCmd(factory), newQuotationShowCmd(factory))

	account := &cobra.Command{Use: "account", Short: "Manage hierarchical customer accounts"}
	account.AddCommand(newAccountCreateCmd(factory), newAccountShowCmd(factory))

	reference := &cobra.Command{Use: "reference", Short: "Manage cached reference data"}
	reference.AddCommand(newReferenceReloadCmd(factory))

	root.AddCommand(quotation, account, reference)
	return root
}

// identityFlags are the caller claims a CLI user must state explicitly.
type identityFlags struct {
	userID   int
	username string
	delegate int
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.userID, "user-id", 0, "ID of the creating user (required)")
	cmd.Flags().StringVar(&f.username, "username", "", "Name of the creating user")
	cmd.Flags().IntVar(&f.delegate, "delegate", 0, "User to assign the follow-up task to")
	_ = cmd.MarkFlagRequired("user-id")
}

func (f *identityFlags) identity() core.Identity {
	id := core.Identity{UserID: f.userID, Username: f.username}
	if f.delegate > 0 {
		d := f.delegate
		id.DelegateUserID = &d
	}
	return id
}

func withService(cmd *cobra.Command, factory ServiceFactory, fn func(ctx context.Context, svc app.ApplicationService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := factory(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── Quotations ───────────────────────────────────────────────────────────────

func newQuotationCreateCmd(factory ServiceFactory) *cobra.Command {
	var (
		ids      identityFlags
		file     string
		override bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a quotation from a JSON request file",
		Example: `  app quotation create -f req.json --user-id 1 --username alice
  app quotation create -f req.json --user-id 1 --delegate 2 --override`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readQuotationRequest(cmd, file)
			if err != nil {
				return err
			}
			if override {
				req.OverrideInventoryCheck = true
			}
			return withService(cmd, factory, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.CreateQuotation(ctx, req, ids.identity())
				if err != nil {
					return err
				}
				if res.RequiresInventoryConfirmation {
					fmt.Fprintln(cmd.ErrOrStderr(), "Re-run with --override to issue anyway.")
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Request JSON file, - for stdin")
	cmd.Flags().BoolVar(&override, "override", false, "Skip the inventory sufficiency check")
	ids.register(cmd)
	return cmd
}

func readQuotationRequest(cmd *cobra.Command, file string) (app.CreateQuotationRequest, error) {
	var req app.CreateQuotationRequest
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return req, fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request JSON: %w", err)
	}
	return req, nil
}

func newQuotationShowCmd(factory ServiceFactory) *cobra.Command {
	var tag int
	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Print a quotation with its lines and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || number <= 0 {
				return fmt.Errorf("quotation number must be a positive integer")
			}
			return withService(cmd, factory, func(ctx context.Context, svc app.ApplicationService) error {
				q, err := svc.GetQuotation(ctx, tag, number)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), q)
			})
		},
	}
	cmd.Flags().IntVar(&tag, "tag", 0, "Numbering series, defaults to QUOTATION_TAG")
	return cmd
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func newAccountCreateCmd(factory ServiceFactory) *cobra.Command {
	var (
		ids identityFlags
		req app.CreateAccountRequest
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a customer account below a parent code",
		Example: `  app account create --parent 1.3 --level 2 --name "Acme" --user-id 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc app.ApplicationService) error {
				res, err := svc.CreateCustomerAccount(ctx, req, ids.identity())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&req.ParentCode, "parent", "", "Parent account code, e.g. 1 or 1.3 (required)")
	cmd.Flags().IntVar(&req.Level, "level", 0, "Depth to create down to, 1-4 (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Customer name (required)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Customer phone")
	cmd.Flags().StringVar(&req.Address, "address", "", "Customer address")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("level")
	_ = cmd.MarkFlagRequired("name")
	ids.register(cmd)
	return cmd
}

func newAccountShowCmd(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Print one account node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc app.ApplicationService) error {
				acc, err := svc.GetCustomerAccount(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), acc)
			})
		},
	}
}

// ── Reference data ───────────────────────────────────────────────────────────

func newReferenceReloadCmd(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Drop cached unit ratios, VAT configuration and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc app.ApplicationService) error {
				if err := svc.ReloadReferenceData(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reference data reloaded.")
				return nil
			})
		},
	}
}
