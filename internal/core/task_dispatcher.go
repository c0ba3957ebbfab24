package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// TaskDispatcher creates the follow-up task of an issued quotation in the same transaction.
type TaskDispatcher struct {
	logger logrus.FieldLogger
}

func NewTaskDispatcher(logger logrus.FieldLogger) *TaskDispatcher {
	return &TaskDispatcher{logger: logger}
}

// Dispatch assigns a follow-up task to the caller's delegate. Without a delegate claim
// nothing is written and the returned id is nil. An insert failure must abort the caller's transaction.
func (d *TaskDispatcher) Dispatch(ctx context.Context, tx pgx.Tx, h QuotationHeader, id Identity, priority int) (*int64, error) {
	assignee, ok := id.Delegate()
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"quotation": h.Number,
			"tag":       h.Tag,
			"user_id":   id.UserID,
		}).Info("no delegate claim, follow-up task skipped")
		return nil, nil
	}

	description := fmt.Sprintf("Follow up quotation %d for customer %s", h.Number, h.CustomerRef)

	var taskID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO tasks (
			assignee_user_id, originator_user_id, description,
			document_number, document_tag, document_date, start_date, priority
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, assignee, id.UserID, description, h.Number, int(h.Tag), h.Date, h.Date, priority).Scan(&taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to create follow-up task for quotation %d: %w", h.Number, err)
	}
	return &taskID, nil
}
