package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-intake/internal/types"
)

// SaveBulkBatch stores a batch and its item results in one transaction.
func (db *DB) SaveBulkBatch(ctx context.Context, batch *types.BulkBatch) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var submittedBy any
	if batch.SubmittedBy != uuid.Nil {
		submittedBy = batch.SubmittedBy
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bulk_upload_batches (id, submitted_by, success_count, failure_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		batch.ID, submittedBy, batch.SuccessCount, batch.FailureCount,
	).Scan(&batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save bulk batch: %w", err)
	}

	rows := &pgx.Batch{}
	for i, r := range batch.Results {
		rows.Queue(
			`INSERT INTO bulk_upload_results (batch_id, position, filename, success, email, account_id, error_reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			batch.ID, i, r.Filename, r.Success, r.Email, r.AccountID, r.ErrorReason,
		)
	}
	if rows.Len() > 0 {
		if err := tx.SendBatch(ctx, rows).Close(); err != nil {
			return fmt.Errorf("failed to save bulk results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bulk batch: %w", err)
	}
	return nil
}

// GetBulkBatch retrieves a batch and its results in input order. Returns nil, nil when not found.
func (db *DB) GetBulkBatch(ctx context.Context, id uuid.UUID) (*types.BulkBatch, error) {
	var batch types.BulkBatch
	var submittedBy *uuid.UUID
	err := db.pool.QueryRow(ctx,
		`SELECT id, submitted_by, success_count, failure_count, created_at
		 FROM bulk_upload_batches WHERE id = $1`,
		id,
	).Scan(&batch.ID, &submittedBy, &batch.SuccessCount, &batch.FailureCount, &batch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bulk batch: %w", err)
	}
	if submittedBy != nil {
		batch.SubmittedBy = *submittedBy
	}

	rows, err := db.pool.Query(ctx,
		`SELECT filename, success, email, account_id, error_reason
		 FROM bulk_upload_results WHERE batch_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulk results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r types.BulkUploadItemResult
		if err := rows.Scan(&r.Filename, &r.Success, &r.Email, &r.AccountID, &r.ErrorReason); err != nil {
			return nil, fmt.Errorf("failed to scan bulk result: %w", err)
		}
		batch.Results = append(batch.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bulk results: %w", err)
	}

	return &batch, nil
}
