package printer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL printer repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const printerColumns = `id,owner_id,name,model,status,total_hours,print_count,
       hours_since_service,last_service_at,notes,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Printer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO printers
		  (id, owner_id, name, model, status, total_hours, print_count, hours_since_service, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.OwnerID, p.Name, p.Model, p.Status,
		p.TotalHours, p.PrintCount, p.HoursSinceService, p.Notes)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Printer, error) {
	p, err := scanPrinter(r.db.QueryRowContext(ctx, `
		SELECT `+printerColumns+` FROM printers WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID) ([]*Printer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+printerColumns+` FROM printers WHERE owner_id=$1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var printers []*Printer
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, err
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Printer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE printers SET name=$1, model=$2, total_hours=$3, notes=$4, updated_at=NOW()
		WHERE id=$5 AND owner_id=$6`,
		p.Name, p.Model, p.TotalHours, p.Notes, p.ID, p.OwnerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE printers SET status=$1, updated_at=NOW() WHERE id=$2 AND owner_id=$3`,
		status, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RecordService(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE printers
		SET hours_since_service=0, last_service_at=NOW(), status=$1, updated_at=NOW()
		WHERE id=$2 AND owner_id=$3`,
		StatusIdle, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM printers WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanPrinter(row rowScanner) (*Printer, error) {
	p := &Printer{}
	var lastService sql.NullTime
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Model, &p.Status,
		&p.TotalHours, &p.PrintCount, &p.HoursSinceService,
		&lastService, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastService.Valid {
		p.LastServiceAt = &lastService.Time
	}
	return p, nil
}
