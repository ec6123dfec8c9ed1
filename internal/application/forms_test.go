package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
)

func TestParseInvoiceForm(t *testing.T) {
	t.Run("valid input is coerced and scaled", func(t *testing.T) {
		in, ferrs := ParseInvoiceForm(InvoiceForm{CustomerID: "c1", Amount: "45.50", Status: "pending"})

		require.Empty(t, ferrs)
		assert.Equal(t, "c1", in.CustomerID)
		assert.Equal(t, int64(4550), in.AmountCents)
		assert.Equal(t, entity.InvoiceStatusPending, in.Status)
	})

	t.Run("amount is rounded to the nearest cent", func(t *testing.T) {
		in, ferrs := ParseInvoiceForm(InvoiceForm{CustomerID: "c1", Amount: "19.999", Status: "paid"})

		require.Empty(t, ferrs)
		assert.Equal(t, int64(2000), in.AmountCents)
	})

	t.Run("non-numeric amount is a field error, not a crash", func(t *testing.T) {
		_, ferrs := ParseInvoiceForm(InvoiceForm{CustomerID: "c1", Amount: "abc", Status: "pending"})

		require.Len(t, ferrs, 1)
		assert.Equal(t, []string{MsgAmountRange}, ferrs["amount"])
	})

	t.Run("zero and negative amounts are rejected", func(t *testing.T) {
		for _, amount := range []string{"0", "-5", "0.0"} {
			_, ferrs := ParseInvoiceForm(InvoiceForm{CustomerID: "c1", Amount: amount, Status: "pending"})
			assert.Equal(t, []string{MsgAmountRange}, ferrs["amount"], "amount=%s", amount)
		}
	})

	t.Run("missing customer", func(t *testing.T) {
		_, ferrs := ParseInvoiceForm(InvoiceForm{Amount: "10", Status: "pending"})

		require.Len(t, ferrs, 1)
		assert.Equal(t, []string{MsgSelectCustomer}, ferrs["customer_id"])
	})

	t.Run("unknown status", func(t *testing.T) {
		_, ferrs := ParseInvoiceForm(InvoiceForm{CustomerID: "c1", Amount: "10", Status: "overdue"})

		require.Len(t, ferrs, 1)
		assert.Equal(t, []string{MsgSelectStatus}, ferrs["status"])
	})

	t.Run("empty form reports every field once", func(t *testing.T) {
		_, ferrs := ParseInvoiceForm(InvoiceForm{})

		require.Len(t, ferrs, 3)
		assert.Equal(t, []string{MsgSelectCustomer}, ferrs["customer_id"])
		assert.Equal(t, []string{MsgAmountRange}, ferrs["amount"])
		assert.Equal(t, []string{MsgSelectStatus}, ferrs["status"])
	})
}

func TestAmountToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"45.50", 4550},
		{"100", 10000},
		{"0.10", 10},
		{"19.999", 2000},
		{" 12.34 ", 1234},
	}
	for _, tc := range cases {
		got, err := AmountToCents(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}

	for _, bad := range []string{"", "abc", "0", "-1", "NaN", "Inf", "-Inf"} {
		_, err := AmountToCents(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
