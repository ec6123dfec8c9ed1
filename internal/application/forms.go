package application

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
)

// Fixed product copy for invoice form errors.
const (
	MsgSelectCustomer = "Please select a customer."
	MsgAmountRange    = "Please enter an amount greater than $0"
	MsgSelectStatus   = "Please select an invoice status."

	MsgCreateFailed = "Missing Fields. Failed to create invoice"
	MsgUpdateFailed = "Missing Fields. Failed to update invoice"
)

// FieldErrors maps a form field name to its ordered list of messages.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) { fe[field] = append(fe[field], msg) }

// ActionState is handed back to the caller when a mutation does not
// redirect, so the form can re-render with messages. A nil ActionState
// from Create/Update means success.
type ActionState struct {
	Errors  FieldErrors `json:"errors,omitempty"`
	Message string      `json:"message,omitempty"`
}

// InvoiceForm is the raw form-encoded field set. Amount stays a string
// until coercion so a non-numeric value becomes a field error instead
// of a bind failure.
type InvoiceForm struct {
	CustomerID string `form:"customer_id" validate:"required"`
	Amount     string `form:"amount" validate:"required"`
	Status     string `form:"status" validate:"required,oneof=pending paid"`
}

// InvoiceInput is the validated, normalized field set: amount already
// scaled to cents, status narrowed to the enum.
type InvoiceInput struct {
	CustomerID  string
	AmountCents int64
	Status      entity.InvoiceStatus
}

var formValidator = validator.New()

var errInvalidAmount = errors.New("amount must be greater than zero")

// ParseInvoiceForm validates and coerces the raw field set. On failure
// the returned FieldErrors is non-empty and the input must be ignored.
func ParseInvoiceForm(form InvoiceForm) (InvoiceInput, FieldErrors) {
	ferrs := FieldErrors{}

	if err := formValidator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.StructField() {
				case "CustomerID":
					ferrs.add("customer_id", MsgSelectCustomer)
				case "Amount":
					ferrs.add("amount", MsgAmountRange)
				case "Status":
					ferrs.add("status", MsgSelectStatus)
				}
			}
		}
	}

	in := InvoiceInput{
		CustomerID: form.CustomerID,
		Status:     entity.InvoiceStatus(form.Status),
	}

	if _, seen := ferrs["amount"]; !seen && form.Amount != "" {
		cents, err := AmountToCents(form.Amount)
		if err != nil {
			ferrs.add("amount", MsgAmountRange)
		} else {
			in.AmountCents = cents
		}
	}

	if len(ferrs) > 0 {
		return InvoiceInput{}, ferrs
	}
	return in, nil
}

// AmountToCents coerces a major-unit amount string into minor units
// (cents), rejecting non-numeric input and anything not strictly
// positive. Scaling is round(amount * 100).
func AmountToCents(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, errInvalidAmount
	}
	return int64(math.Round(v * 100)), nil
}
