package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/printlog/printlog-backend/internal/modules/printer"
	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL workflow repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ApproveBudget(ctx context.Context, batch *ApproveBudgetBatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p := batch.Project
	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET status=$1, payload=$2, updated_at=NOW()
		WHERE id=$3 AND owner_id=$4`,
		p.Status, nullableJSON(p.Payload), p.ID, batch.OwnerID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return project.ErrNotFound
	}

	if batch.PrinterID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE printers
			SET total_hours=total_hours+$1, hours_since_service=hours_since_service+$1,
			    print_count=print_count+1, status=$2, updated_at=NOW()
			WHERE id=$3 AND owner_id=$4`,
			batch.PrintHours, printer.StatusPrinting, batch.PrinterID, batch.OwnerID)
		if err != nil {
			return fmt.Errorf("update printer: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return printer.ErrNotFound
		}
	}

	for _, debit := range batch.Debits {
		if err := applyDebit(ctx, tx, batch.OwnerID, debit); err != nil {
			return err
		}
		if err := insertLedger(ctx, tx, debit.Entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) RecordFailure(ctx context.Context, ownerID uuid.UUID, entry *stock.LedgerEntry, debit *StockDebit, printerID *uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := insertLedger(ctx, tx, entry); err != nil {
		return false, err
	}

	debited := false
	if debit != nil {
		// The history write stands even when the balance target is gone or
		// stale; the debit is dropped, not the whole event.
		res, err := tx.ExecContext(ctx, `
			UPDATE stock_items
			SET current_amount=$1, version=version+1, updated_at=NOW()
			WHERE id=$2 AND owner_id=$3 AND version=$4 AND deleted_at IS NULL`,
			debit.NewAmount, debit.ItemID, ownerID, debit.ExpectedVersion)
		if err != nil {
			return false, fmt.Errorf("debit stock item: %w", err)
		}
		n, _ := res.RowsAffected()
		debited = n > 0
	}

	if printerID != nil {
		_, err := tx.ExecContext(ctx, `
			UPDATE printers SET print_count=print_count+1, updated_at=NOW()
			WHERE id=$1 AND owner_id=$2`, printerID, ownerID)
		if err != nil {
			return false, fmt.Errorf("update printer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return debited, nil
}

// applyDebit runs one version-conditioned balance write inside the batch
// transaction. Zero rows hit aborts the whole batch.
func applyDebit(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, debit StockDebit) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE stock_items
		SET current_amount=$1, version=version+1, updated_at=NOW()
		WHERE id=$2 AND owner_id=$3 AND version=$4 AND deleted_at IS NULL`,
		debit.NewAmount, debit.ItemID, ownerID, debit.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("debit stock item: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM stock_items
		WHERE id=$1 AND owner_id=$2 AND deleted_at IS NULL`,
		debit.ItemID, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return stock.ErrNotFound
	}
	if err != nil {
		return err
	}
	return stock.ErrVersionConflict
}

func insertLedger(ctx context.Context, tx *sql.Tx, entry *stock.LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_ledger
		  (id, item_id, owner_id, kind, amount_delta, note, printer_id, project_id, cost_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		entry.ID, entry.ItemID, entry.OwnerID, entry.Kind, entry.AmountDelta,
		entry.Note, entry.PrinterID, entry.ProjectID, entry.CostSnapshot)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
