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

// AccountService allocates hierarchical customer accounts.
type AccountService interface {
	// CreateCustomerAccount creates the nodes from the first missing level down to
	// req.TargetLevel and registers the leaf as a customer, atomically.
	CreateCustomerAccount(ctx context.Context, req AccountRequest, id Identity) (*AccountResult, error)
	GetCustomerAccount(ctx context.Context, path AccountPath) (*CustomerAccount, error)
}

type accountService struct {
	pool      *pgxpool.Pool
	sequences *SequenceAllocator
	logger    logrus.FieldLogger
}

func NewAccountService(pool *pgxpool.Pool, logger logrus.FieldLogger) AccountService {
	return &accountService{pool: pool, sequences: NewSequenceAllocator(logger), logger: logger}
}

func validateAccountRequest(req AccountRequest, id Identity) (AccountParent, error) {
	const op = "ValidateAccountRequest"
	if id.UserID <= 0 {
		return AccountParent{}, validationError(op, "creating user id is required")
	}
	if err := validate.Struct(req); err != nil {
		return AccountParent{}, validationError(op, "%s", validationMessages(err))
	}
	if !req.TargetLevel.Valid() {
		return AccountParent{}, validationError(op, "target level must be between 1 and 4")
	}
	first, err := ParentFor(req.Parent)
	if err != nil {
		return AccountParent{}, validationError(op, "%s", err.Error())
	}
	if req.TargetLevel < first.Level {
		return AccountParent{}, validationError(op, "target level %d is not below parent %s", req.TargetLevel, req.Parent.Code())
	}
	return first, nil
}

func (s *accountService) CreateCustomerAccount(ctx context.Context, req AccountRequest, id Identity) (*AccountResult, error) {
	const op = "CreateCustomerAccount"

	first, err := validateAccountRequest(req, id)
	if err != nil {
		return nil, err
	}

	res, err := s.create(ctx, op, req, id, first)
	if err != nil {
		ee := ClassifyDBError(op, err)
		if ee.Kind == KindUnexpected {
			logging.LogError(s.logger, "account", op, "create customer account", req, err)
		} else {
			s.logger.WithField("kind", ee.Kind.String()).WithError(err).Warn("customer account rejected")
		}
		return nil, ee
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": id.UserID,
		"account": res.CustomerRef,
		"created": len(res.Created),
	}).Info("customer account created")
	return res, nil
}

// create locks only the first allocation point. Deeper levels hang under nodes that
// this transaction has just created, so nobody else can allocate there yet.
func (s *accountService) create(ctx context.Context, op string, req AccountRequest, id Identity, first AccountParent) (*AccountResult, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	unlock, err := s.sequences.LockScope(ctx, conn, AccountScope{Parent: first})
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.ensureParent(ctx, tx, op, req.Parent); err != nil {
		return nil, err
	}

	path := req.Parent
	var created []AccountPath
	for level := first.Level; level <= req.TargetLevel; level++ {
		scope := AccountScope{Parent: AccountParent{Level: level, Path: path}}
		next, err := s.sequences.AllocateNext(ctx, tx, scope)
		if err != nil {
			return nil, err
		}
		path = path.Child(int(next))

		tag, err := tx.Exec(ctx, `
			INSERT INTO customer_accounts (kol, moin, tnumber1, tnumber2, tnumber3, level, name, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, path.Kol, path.IDs[0], path.IDs[1], path.IDs[2], path.IDs[3], int(level), req.Name, id.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert account %s: %w", path.Code(), err)
		}
		if tag.RowsAffected() != 1 {
			return nil, persistenceError(op, "customer account insert")
		}
		created = append(created, path)
	}

	ref := path.Code()
	tag, err := tx.Exec(ctx, `
		INSERT INTO customers (customer_ref, name, phone, address, kol, moin, tnumber1, tnumber2, tnumber3, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ref, req.Name, req.Phone, req.Address, path.Kol, path.IDs[0], path.IDs[1], path.IDs[2], path.IDs[3], id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer %s: %w", ref, err)
	}
	if tag.RowsAffected() != 1 {
		return nil, persistenceError(op, "customer insert")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account %s: %w", ref, err)
	}
	return &AccountResult{Path: path, CustomerRef: ref, Created: created}, nil
}

// ensureParent checks that the root group and, below it, the parent node exist.
func (s *accountService) ensureParent(ctx context.Context, tx pgx.Tx, op string, parent AccountPath) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM account_groups WHERE kol = $1)`, parent.Kol).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account group %d: %w", parent.Kol, err)
	}
	if !exists {
		return conflictError(op, "customer_accounts_group_fkey", fmt.Sprintf("account group %d does not exist", parent.Kol), nil)
	}

	depth := parent.Depth()
	if depth == 0 {
		return nil
	}
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM customer_accounts
			WHERE kol = $1 AND moin = $2 AND tnumber1 = $3 AND tnumber2 = $4 AND tnumber3 = $5
		)
	`, parent.Kol, parent.IDs[0], parent.IDs[1], parent.IDs[2], parent.IDs[3]).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check parent account %s: %w", parent.Code(), err)
	}
	if !exists {
		return conflictError(op, "", fmt.Sprintf("parent account %s does not exist", parent.Code()), nil)
	}
	return nil
}

func (s *accountService) GetCustomerAccount(ctx context.Context, path AccountPath) (*CustomerAccount, error) {
	a := CustomerAccount{Path: path}
	var level int
	err := s.pool.QueryRow(ctx, `
		SELECT level, name, created_by
		FROM customer_accounts
		WHERE kol = $1 AND moin = $2 AND tnumber1 = $3 AND tnumber2 = $4 AND tnumber3 = $5
	`, path.Kol, path.IDs[0], path.IDs[1], path.IDs[2], path.IDs[3]).Scan(&level, &a.Name, &a.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", path.Code(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account %s: %w", path.Code(), err)
	}
	a.Level = AccountLevel(level)
	return &a, nil
}
