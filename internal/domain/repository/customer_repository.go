package repository

import (
	"context"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
)

// CustomerRepository feeds the invoice form's customer dropdown.
type CustomerRepository interface {
	List(ctx context.Context) ([]entity.Customer, error)
}
