package repository

import (
	"context"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
)

// InvoiceRow is an invoice joined with its customer, the shape the
// dashboard list and the search index work with. Kept here so the
// read side does not depend on infrastructure types.
type InvoiceRow struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ImageURL      string `json:"image_url"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	Date          string `json:"date"`
}

// InvoiceRepository defines persistence operations for invoices.
// Update and Delete deliberately do not report "not found": matching
// zero rows is a store-level no-op and callers treat it as success.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	Update(ctx context.Context, inv *entity.Invoice) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetRowByID(ctx context.Context, id string) (*InvoiceRow, error)
	List(ctx context.Context, limit, offset int) ([]InvoiceRow, error)
	SetAttachmentURL(ctx context.Context, id, url string) error
}
