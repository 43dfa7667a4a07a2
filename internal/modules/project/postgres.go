package project

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL project repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const projectColumns = `id,owner_id,client_id,name,status,payload,total_budget,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, client_id, name, status, payload, total_budget)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.OwnerID, p.ClientID, p.Name, p.Status, nullableJSON(p.Payload), p.TotalBudget)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID, status Status) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id=$1`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name=$1, client_id=$2, payload=$3, total_budget=$4, updated_at=NOW()
		WHERE id=$5 AND owner_id=$6`,
		p.Name, p.ClientID, nullableJSON(p.Payload), p.TotalBudget, p.ID, p.OwnerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, p *Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status=$1, payload=$2, updated_at=NOW()
		WHERE id=$3 AND owner_id=$4`,
		p.Status, nullableJSON(p.Payload), p.ID, p.OwnerID)
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
		`DELETE FROM projects WHERE id=$1 AND owner_id=$2`, id, ownerID)
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

func scanProject(row rowScanner) (*Project, error) {
	p := &Project{}
	var clientID sql.NullString
	var payload []byte
	err := row.Scan(&p.ID, &p.OwnerID, &clientID, &p.Name, &p.Status,
		&payload, &p.TotalBudget, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		uid, err := uuid.Parse(clientID.String)
		if err == nil {
			p.ClientID = &uid
		}
	}
	p.Payload = payload
	return p, nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
