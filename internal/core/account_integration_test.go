package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"order-backoffice/internal/core"
	"order-backoffice/internal/logging"
)

func TestCreateCustomerAccount_CreatesMissingLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewAccountService(pool, logging.Discard())
	ctx := context.Background()

	res, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
		Parent:      core.AccountPath{Kol: 1},
		TargetLevel: core.Level3,
		Name:        "Acme Trading",
	}, core.Identity{UserID: 1})
	if err != nil {
		t.Fatalf("CreateCustomerAccount failed: %v", err)
	}
	if res.CustomerRef != "1.1.1.1" {
		t.Errorf("expected 1.1.1.1, got %s", res.CustomerRef)
	}
	if len(res.Created) != 3 {
		t.Errorf("expected 3 created nodes, got %d", len(res.Created))
	}

	acc, err := svc.GetCustomerAccount(ctx, res.Path)
	if err != nil {
		t.Fatalf("GetCustomerAccount failed: %v", err)
	}
	if acc.Level != core.Level3 {
		t.Errorf("expected level 3, got %d", acc.Level)
	}

	var name string
	if err := pool.QueryRow(ctx, `SELECT name FROM customers WHERE customer_ref = $1`, res.CustomerRef).Scan(&name); err != nil {
		t.Fatalf("expected customer row: %v", err)
	}
	if name != "Acme Trading" {
		t.Errorf("expected customer name, got %q", name)
	}
}

func TestCreateCustomerAccount_SiblingsUnderConcurrency(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewAccountService(pool, logging.Discard())
	ctx := context.Background()
	id := core.Identity{UserID: 1}

	parent, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
		Parent: core.AccountPath{Kol: 1}, TargetLevel: core.Level1, Name: "Retail",
	}, id)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
				Parent: parent.Path, TargetLevel: core.Level2, Name: "Shop",
			}, id)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[res.Path.IDs[1]] {
				errCh <- errors.New("duplicate sibling id " + res.CustomerRef)
				return
			}
			seen[res.Path.IDs[1]] = true
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent CreateCustomerAccount: %v", err)
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct siblings, got %d", workers, len(seen))
	}
}

func TestCreateCustomerAccount_IDsRestartPerParent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewAccountService(pool, logging.Discard())
	ctx := context.Background()
	id := core.Identity{UserID: 1}

	first, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
		Parent: core.AccountPath{Kol: 1}, TargetLevel: core.Level2, Name: "North",
	}, id)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
		Parent: core.AccountPath{Kol: 1}, TargetLevel: core.Level2, Name: "South",
	}, id)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.CustomerRef != "1.1.1" || second.CustomerRef != "1.2.1" {
		t.Errorf("expected 1.1.1 and 1.2.1, got %s and %s", first.CustomerRef, second.CustomerRef)
	}
}

func TestCreateCustomerAccount_MissingParents(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewAccountService(pool, logging.Discard())
	ctx := context.Background()
	id := core.Identity{UserID: 1}

	tests := []struct {
		name   string
		parent core.AccountPath
	}{
		{"missing group", core.AccountPath{Kol: 9}},
		{"missing parent node", core.AccountPath{Kol: 1, IDs: [4]int{7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCustomerAccount(ctx, core.AccountRequest{
				Parent: tt.parent, TargetLevel: core.Level4, Name: "X",
			}, id)
			if !errors.Is(err, core.ErrAllocationConflict) {
				t.Errorf("expected allocation conflict, got %v", err)
			}
		})
	}
	if n := countRows(t, pool, "customer_accounts"); n != 0 {
		t.Errorf("expected no accounts, got %d", n)
	}
}

func TestCreateCustomerAccount_Validation(t *testing.T) {
	svc := core.NewAccountService(nil, logging.Discard())
	ctx := context.Background()

	tests := []struct {
		name string
		req  core.AccountRequest
		id   core.Identity
	}{
		{"no user", core.AccountRequest{Parent: core.AccountPath{Kol: 1}, TargetLevel: core.Level1, Name: "X"}, core.Identity{}},
		{"no name", core.AccountRequest{Parent: core.AccountPath{Kol: 1}, TargetLevel: core.Level1}, core.Identity{UserID: 1}},
		{"target above parent", core.AccountRequest{Parent: core.AccountPath{Kol: 1, IDs: [4]int{1, 1}}, TargetLevel: core.Level1, Name: "X"}, core.Identity{UserID: 1}},
		{"bad level", core.AccountRequest{Parent: core.AccountPath{Kol: 1}, TargetLevel: 5, Name: "X"}, core.Identity{UserID: 1}},
		{"leaf parent", core.AccountRequest{Parent: core.AccountPath{Kol: 1, IDs: [4]int{1, 1, 1, 1}}, TargetLevel: core.Level4, Name: "X"}, core.Identity{UserID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCustomerAccount(ctx, tt.req, tt.id)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
