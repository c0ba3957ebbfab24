package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// SequenceScope identifies one independent numbering series.
type SequenceScope interface {
	// Key names the series; equal keys serialize, different keys never block each other.
	Key() string
	// maxQuery returns the statement that yields MAX+1 within the scope.
	maxQuery() (string, []any)
}

// DocumentScope numbers quotations within one tag.
type DocumentScope struct {
	Tag DocumentTag
}

func (s DocumentScope) Key() string {
	return fmt.Sprintf("quotation:tag=%d", s.Tag)
}

func (s DocumentScope) maxQuery() (string, []any) {
	return `SELECT COALESCE(MAX(number), 0) + 1 FROM quotation_headers WHERE tag = $1`, []any{int(s.Tag)}
}

const unlockTimeout = 5 * time.Second

// SequenceAllocator hands out gap-tolerant, duplicate-free numbers using read-max-plus-one
// under a PostgreSQL advisory lock.
//
// The lock is a session lock taken on the pinned connection before the transaction
// begins. Under REPEATABLE READ and SERIALIZABLE the snapshot is fixed by the first
// statement, so the lock must already be held when that snapshot is taken; otherwise a
// waiter would wake up and still read the pre-commit MAX.
type SequenceAllocator struct {
	logger logrus.FieldLogger
}

func NewSequenceAllocator(logger logrus.FieldLogger) *SequenceAllocator {
	return &SequenceAllocator{logger: logger}
}

// LockScope blocks until the scope lock is held on conn. The returned release must be
// called after the transaction has committed or rolled back.
func (a *SequenceAllocator) LockScope(ctx context.Context, conn *pgxpool.Conn, scope SequenceScope) (func(), error) {
	key := scope.Key()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		return nil, fmt.Errorf("failed to lock sequence %s: %w", key, err)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
			// A session lock only goes away with its session; never return this connection to the pool.
			a.logger.WithError(err).WithField("scope", key).Error("failed to release sequence lock, closing connection")
			_ = conn.Hijack().Close(ctx)
		}
	}
	return release, nil
}

// AllocateNext returns MAX+1 within scope, read inside the caller's transaction.
func (a *SequenceAllocator) AllocateNext(ctx context.Context, tx pgx.Tx, scope SequenceScope) (int64, error) {
	query, args := scope.maxQuery()
	var next int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to allocate next number for %s: %w", scope.Key(), err)
	}
	return next, nil
}
