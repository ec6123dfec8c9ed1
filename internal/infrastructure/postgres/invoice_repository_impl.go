package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
	"github.com/oksasatya/go-invoice-dashboard/internal/domain/repository"
)

type InvoiceRepository struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (customer_id, amount, status, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, inv.CustomerID, inv.Amount, string(inv.Status), inv.Date)

	return row.Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
}

// Update sets customer, amount, and status on the row matching inv.ID.
// The issue date is never rewritten. Matching zero rows is not an error.
func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	inv.UpdatedAt = time.Now()

	_, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET customer_id = $1, amount = $2, status = $3, updated_at = $4
		WHERE id = $5
	`, inv.CustomerID, inv.Amount, string(inv.Status), inv.UpdatedAt, inv.ID)
	return err
}

func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	return err
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv := &entity.Invoice{}
	var attachment *string

	row := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, amount, status, date::text, attachment_url, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`, id)

	if err := row.Scan(&inv.ID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.Date,
		&attachment, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if attachment != nil {
		inv.AttachmentURL = *attachment
	}

	return inv, nil
}

func (r *InvoiceRepository) GetRowByID(ctx context.Context, id string) (*repository.InvoiceRow, error) {
	out := &repository.InvoiceRow{}

	row := r.pool.QueryRow(ctx, `
		SELECT i.id, i.customer_id, c.name, c.email, c.image_url, i.amount, i.status, i.date::text
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1
	`, id)

	if err := row.Scan(&out.ID, &out.CustomerID, &out.CustomerName, &out.CustomerEmail,
		&out.ImageURL, &out.Amount, &out.Status, &out.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return out, nil
}

func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]repository.InvoiceRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.customer_id, c.name, c.email, c.image_url, i.amount, i.status, i.date::text
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		ORDER BY i.date DESC, i.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]repository.InvoiceRow, 0, limit)
	for rows.Next() {
		var ir repository.InvoiceRow
		if err := rows.Scan(&ir.ID, &ir.CustomerID, &ir.CustomerName, &ir.CustomerEmail,
			&ir.ImageURL, &ir.Amount, &ir.Status, &ir.Date); err != nil {
			return nil, err
		}
		out = append(out, ir)
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) SetAttachmentURL(ctx context.Context, id, url string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE invoices SET attachment_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	return err
}

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)
