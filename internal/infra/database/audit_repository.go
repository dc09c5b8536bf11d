package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/products-cms/internal/entity"
)

const schema = `
	CREATE TABLE IF NOT EXISTS product_audit (
		id           UUID PRIMARY KEY,
		action       TEXT NOT NULL,
		product_id   TEXT NOT NULL,
		product_name TEXT,
		status       TEXT,
		actor        TEXT NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ix_product_audit_occurred_at ON product_audit (occurred_at DESC);
`

type AuditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create product_audit table: %w", err)
	}
	return nil
}

// Insert stores e. Redelivered events are ignored.
func (r *AuditRepository) Insert(ctx context.Context, e *entity.AuditEvent) error {
	query := `
		INSERT INTO product_audit (id, action, product_id, product_name, status, actor, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		string(e.Action),
		e.ProductID.String(),
		nullString(e.ProductName),
		nullString(string(e.Status)),
		e.Actor,
		e.OccurredAt,
	)
	return err
}

// ListRecent returns up to limit events, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]entity.AuditEvent, error) {
	query := `
		SELECT id, action, product_id, COALESCE(product_name, ''), COALESCE(status, ''), actor, occurred_at
		FROM product_audit
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []entity.AuditEvent{}
	for rows.Next() {
		var (
			e         entity.AuditEvent
			action    string
			productID string
			status    string
		)
		if err := rows.Scan(&e.ID, &action, &productID, &e.ProductName, &status, &e.Actor, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Action = entity.AuditAction(action)
		e.ProductID = entity.ProductID(productID)
		e.Status = entity.Status(status)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
