// internal/tickets/postgres.go
package tickets

import (
	"context"
	"database/sql"
	"errors"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tickets (
	id             TEXT PRIMARY KEY,
	subject        TEXT NOT NULL,
	description    TEXT NOT NULL,
	customer_name  TEXT NOT NULL,
	customer_email TEXT,
	category       TEXT NOT NULL,
	priority       TEXT NOT NULL,
	status         TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	updated_at     TEXT,
	assigned_to    TEXT
)`

const selectColumns = `
	SELECT id, subject, description, customer_name, COALESCE(customer_email, ''),
	       category, priority, status, created_at, COALESCE(updated_at, ''), COALESCE(assigned_to, '')
	FROM tickets`

// PostgresRepository stores created tickets in the tickets table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return apperrors.NewDatabaseQueryFailedError("create tickets table", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, t models.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (id, subject, description, customer_name, customer_email,
		                     category, priority, status, created_at, updated_at, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.Subject, t.Description, t.CustomerName, nullable(t.CustomerEmail),
		t.Category, t.Priority, t.Status, t.CreatedAt, nullable(t.UpdatedAt), nullable(t.AssignedTo),
	)
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("insert ticket", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Ticket, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("get ticket", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list tickets", err)
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("scan ticket", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list tickets", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(s scanner) (*models.Ticket, error) {
	var t models.Ticket
	err := s.Scan(
		&t.ID, &t.Subject, &t.Description, &t.CustomerName, &t.CustomerEmail,
		&t.Category, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.AssignedTo,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
