package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/venue-booking/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   domain.BookingStatus
		wantOK bool
	}{
		{OrderStatusPaid, domain.BookingStatusPaid, true},
		{OrderStatusCancelled, domain.BookingStatusCancelled, true},
		{OrderStatusDeclined, domain.BookingStatusDeclined, true},
		{OrderStatusExpired, domain.BookingStatusExpired, true},
		{OrderStatusFailed, domain.BookingStatusFailed, true},
		{OrderStatusAborted, domain.BookingStatusAborted, true},
		{OrderStatusRejected, domain.BookingStatusRejected, true},
		{OrderStatusAuthorised, domain.BookingStatusOnHold, true},
		// Not actionable: the booking stays as it is.
		{OrderStatusPending, "", false},
		{OrderStatusUnknown, "", false},
		{OrderStatus("Weird"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, ok := MapStatus(tt.status)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, OrderStatusPaid, Normalize("Paid"))
	assert.Equal(t, OrderStatusAuthorised, Normalize("Authorised"))
	assert.Equal(t, OrderStatusUnknown, Normalize("paid"), "vocabulary is case sensitive")
	assert.Equal(t, OrderStatusUnknown, Normalize(""))
	assert.Equal(t, OrderStatusUnknown, Normalize("TIMEOUT"))
}

func TestMockGateway_OutcomeIsSticky(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{PaidRate: 0.5, PendingRate: 0.3, DelayMs: 0})
	ctx := context.Background()

	first, err := g.CheckTransaction(ctx, "ord-1")
	require.NoError(t, err)

	// An eventually consistent provider may be slow, but it never flip-flops
	// on a settled order.
	for i := 0; i < 20; i++ {
		snap, err := g.CheckTransaction(ctx, "ord-1")
		require.NoError(t, err)
		assert.Equal(t, first.OrderStatus, snap.OrderStatus)
	}
}

func TestMockGateway_SetOutcome(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{PaidRate: 1, DelayMs: 0})
	ctx := context.Background()

	g.SetOutcome("ord-1", OrderStatusDeclined)
	snap, err := g.CheckTransaction(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDeclined, snap.OrderStatus)
	assert.Equal(t, "Declined", snap.TransactionStatus)
}

func TestMockGateway_CreateOrder(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{PaidRate: 1, DelayMs: 0})
	ctx := context.Background()

	snap, err := g.CreateOrder(ctx, &OrderRequest{
		MerchantReference: "bkg-1",
		Amount:            250,
		Currency:          "THB",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.OrderReference)
	assert.Equal(t, OrderStatusPending, snap.OrderStatus)
	assert.Equal(t, 250.0, snap.Amount)
	assert.Equal(t, "THB", snap.Currency)

	other, err := g.CreateOrder(ctx, &OrderRequest{MerchantReference: "bkg-2", Amount: 250, Currency: "THB"})
	require.NoError(t, err)
	assert.NotEqual(t, snap.OrderReference, other.OrderReference)
}

func TestMockGateway_CreateOrderRequiresMerchantReference(t *testing.T) {
	g := NewMockGateway(nil)
	_, err := g.CreateOrder(context.Background(), &OrderRequest{})
	assert.Error(t, err)
	_, err = g.CreateOrder(context.Background(), nil)
	assert.Error(t, err)
}

func TestMockGateway_RequiresOrderReference(t *testing.T) {
	g := NewMockGateway(nil)
	_, err := g.CheckTransaction(context.Background(), "")
	assert.Error(t, err)
}

func TestMockGateway_PaidRateOneAlwaysPays(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{PaidRate: 1, DelayMs: 0})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		snap, err := g.CheckTransaction(ctx, string(rune('a'+i)))
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPaid, snap.OrderStatus)
	}
}

func TestMockGateway_HonorsContextDuringDelay(t *testing.T) {
	g := NewMockGateway(&MockGatewayConfig{PaidRate: 1, DelayMs: 5000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.CheckTransaction(ctx, "ord-1")
	assert.ErrorIs(t, err, context.Canceled)
}
