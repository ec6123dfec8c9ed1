package entity

import "time"

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice is the aggregate root for the billing domain.
// Amount is stored in minor units (cents); Date is the issue date in
// YYYY-MM-DD form, set server-side at creation and never updated.
type Invoice struct {
	ID            string
	CustomerID    string
	Amount        int64
	Status        InvoiceStatus
	Date          string
	AttachmentURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
