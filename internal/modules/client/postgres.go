package client

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL client repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, c *Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, owner_id, name, company, email, phone, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.OwnerID, c.Name, c.Company, c.Email, c.Phone, c.Notes)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Client, error) {
	c := &Client{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id,owner_id,name,company,email,phone,notes,created_at,updated_at
		FROM clients WHERE id=$1 AND owner_id=$2`, id, ownerID).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Company, &c.Email, &c.Phone,
			&c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID) ([]*Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,owner_id,name,company,email,phone,notes,created_at,updated_at
		FROM clients WHERE owner_id=$1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clients []*Client
	for rows.Next() {
		c := &Client{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Company, &c.Email,
			&c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, c *Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET name=$1, company=$2, email=$3, phone=$4, notes=$5, updated_at=NOW()
		WHERE id=$6 AND owner_id=$7`,
		c.Name, c.Company, c.Email, c.Phone, c.Notes, c.ID, c.OwnerID)
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
		`DELETE FROM clients WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
