package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL stock repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const itemColumns = `id,owner_id,type,name,brand,material,color,unit,unit_price,
       capacity_total,current_amount,favorite,version,opened_at,deleted_at,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, item *Item, opening *LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_items
		  (id, owner_id, type, name, brand, material, color, unit, unit_price,
		   capacity_total, current_amount, favorite, version, opened_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		item.ID, item.OwnerID, item.Type, item.Name, item.Brand, item.Material,
		item.Color, item.Unit, item.UnitPrice, item.CapacityTotal,
		item.CurrentAmount, item.Favorite, item.Version, item.OpenedAt)
	if err != nil {
		return fmt.Errorf("insert stock item: %w", err)
	}

	if err := insertLedger(ctx, tx, opening); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID, includeDeleted bool) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items WHERE id=$1 AND owner_id=$2`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items WHERE owner_id=$1`
	args := []interface{}{ownerID}
	switch {
	case filter.DeletedOnly:
		query += ` AND deleted_at IS NOT NULL`
	case !filter.IncludeDeleted:
		query += ` AND deleted_at IS NULL`
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type=$%d`, len(args)+1)
		args = append(args, filter.Type)
	}
	query += ` ORDER BY favorite DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepo) UpdateDetails(ctx context.Context, item *Item, expectedVersion int64) (*Item, error) {
	query := `
		UPDATE stock_items
		SET name=$1, brand=$2, material=$3, color=$4, unit=$5, unit_price=$6,
		    capacity_total=$7, favorite=$8, opened_at=$9,
		    version=version+1, updated_at=NOW()
		WHERE id=$10 AND owner_id=$11 AND deleted_at IS NULL`
	args := []interface{}{item.Name, item.Brand, item.Material, item.Color,
		item.Unit, item.UnitPrice, item.CapacityTotal, item.Favorite,
		item.OpenedAt, item.ID, item.OwnerID}
	if expectedVersion > 0 {
		query += ` AND version=$12`
		args = append(args, expectedVersion)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, r.conflictOrMissing(ctx, item.OwnerID, item.ID)
	}
	return r.GetByID(ctx, item.OwnerID, item.ID, false)
}

// ApplyAdjustment is the single write path for balances: the new amount and
// the version bump land in one statement so there is no window between the
// check and the write, and the ledger row commits in the same transaction.
func (r *postgresRepo) ApplyAdjustment(ctx context.Context, ownerID, id uuid.UUID, newAmount float64, expectedVersion int64, entry *LedgerEntry) (*Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE stock_items
		SET current_amount=$1, version=version+1, updated_at=NOW()
		WHERE id=$2 AND owner_id=$3 AND version=$4 AND deleted_at IS NULL`,
		newAmount, id, ownerID, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, r.conflictOrMissing(ctx, ownerID, id)
	}

	if err := insertLedger(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, ownerID, id, false)
}

func (r *postgresRepo) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	// Deleting an already-deleted item just refreshes the timestamp.
	res, err := r.db.ExecContext(ctx, `
		UPDATE stock_items SET deleted_at=NOW(), updated_at=NOW()
		WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Restore(ctx context.Context, ownerID, id uuid.UUID) error {
	// Restoring a live item is a no-op; the version is untouched either way.
	res, err := r.db.ExecContext(ctx, `
		UPDATE stock_items SET deleted_at=NULL, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AppendLedger(ctx context.Context, entry *LedgerEntry) error {
	return insertLedger(ctx, r.db, entry)
}

func (r *postgresRepo) ListLedger(ctx context.Context, ownerID, itemID uuid.UUID) ([]*LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_id, owner_id, kind, amount_delta, note, printer_id, project_id, cost_snapshot, created_at
		FROM stock_ledger WHERE owner_id=$1 AND item_id=$2
		ORDER BY created_at DESC`, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*LedgerEntry
	for rows.Next() {
		e := &LedgerEntry{}
		var itemID, printerID, projectID sql.NullString
		if err := rows.Scan(&e.ID, &itemID, &e.OwnerID, &e.Kind, &e.AmountDelta,
			&e.Note, &printerID, &projectID, &e.CostSnapshot, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ItemID = nullableUUID(itemID)
		e.PrinterID = nullableUUID(printerID)
		e.ProjectID = nullableUUID(projectID)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// conflictOrMissing tells a stale version apart from a missing or deleted row
// after a conditioned update hit nothing.
func (r *postgresRepo) conflictOrMissing(ctx context.Context, ownerID, id uuid.UUID) error {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		SELECT version FROM stock_items
		WHERE id=$1 AND owner_id=$2 AND deleted_at IS NULL`, id, ownerID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// execer lets insertLedger run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertLedger(ctx context.Context, ex execer, entry *LedgerEntry) error {
	_, err := ex.ExecContext(ctx, `
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

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanItem(row rowScanner) (*Item, error) {
	item := &Item{}
	var openedAt, deletedAt sql.NullTime
	err := row.Scan(&item.ID, &item.OwnerID, &item.Type, &item.Name, &item.Brand,
		&item.Material, &item.Color, &item.Unit, &item.UnitPrice,
		&item.CapacityTotal, &item.CurrentAmount, &item.Favorite, &item.Version,
		&openedAt, &deletedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if openedAt.Valid {
		item.OpenedAt = &openedAt.Time
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	return item, nil
}

func nullableUUID(s sql.NullString) *uuid.UUID {
	if !s.Valid {
		return nil
	}
	uid, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &uid
}
