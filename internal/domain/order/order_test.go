package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Status Transition Tests
// ============================================

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusConfirmed, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusShipped, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRefunded, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusRefunded, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusRefunded, true},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusRefunded, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_TerminalStatesAllowNothing(t *testing.T) {
	targets := []Status{StatusPending, StatusProcessing, StatusConfirmed,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

	for _, terminal := range []Status{StatusCancelled, StatusRefunded} {
		o := &Order{Status: terminal}
		for _, target := range targets {
			assert.False(t, o.CanTransitionTo(target),
				"%s should not transition to %s", terminal, target)
		}
	}
}

func TestOrder_CanBeCancelled(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusProcessing, true},
		{StatusConfirmed, true},
		{StatusShipped, false},
		{StatusDelivered, false},
		{StatusCancelled, false},
		{StatusRefunded, false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.status}
		assert.Equal(t, tt.want, o.CanBeCancelled(), "status %s", tt.status)
	}
}

func TestOrder_CanPaymentTransitionTo(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentPaid, false},
		{PaymentProcessing, PaymentPaid, true},
		{PaymentProcessing, PaymentFailed, true},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentPartiallyRefunded, true},
		{PaymentFailed, PaymentProcessing, true},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentPartiallyRefunded, PaymentRefunded, true},
	}

	for _, tt := range tests {
		o := &Order{PaymentStatus: tt.from}
		assert.Equal(t, tt.allowed, o.CanPaymentTransitionTo(tt.to),
			"%s to %s", tt.from, tt.to)
	}
}

// ============================================
// Pricing and Totals Tests
// ============================================

func TestOrder_ValidateTotals(t *testing.T) {
	o := &Order{
		Subtotal:       10000,
		TaxAmount:      800,
		ShippingAmount: 500,
		DiscountAmount: 1000,
		TotalAmount:    10300,
	}
	require.NoError(t, o.ValidateTotals())

	o.TotalAmount = 10301
	assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
}

func TestOrder_TotalItems(t *testing.T) {
	o := &Order{Items: []Item{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	}}
	assert.Equal(t, 5, o.TotalItems())

	empty := &Order{}
	assert.Equal(t, 0, empty.TotalItems())
}

func TestNewOrderNumber_Format(t *testing.T) {
	number := NewOrderNumber()

	assert.True(t, strings.HasPrefix(number, "ORD-"))
	assert.Len(t, number, 13)
}
