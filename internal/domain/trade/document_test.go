package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTotals() Totals {
	return ComputeTotals([]LineInput{{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(10)}}, DefaultTaxRate)
}

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		isValid bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusProcessing, true},
		{OrderStatusShipped, true},
		{OrderStatusDelivered, true},
		{OrderStatusCancelled, true},
		{OrderStatus("PENDING"), false},
		{OrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestNewOrder(t *testing.T) {
	companyID, userID := uuid.New(), uuid.New()

	t.Run("creates pending order", func(t *testing.T) {
		order, err := NewOrder("ORD-1-ABCDEF", companyID, userID, testTotals(), OrderDetails{PONumber: "PO-7"})
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, "ORD-1-ABCDEF", order.Number())
		assert.Equal(t, order.ID, order.DocumentID())
		assert.Equal(t, "PO-7", order.PONumber)
		assert.True(t, order.Total.Equal(decimal.RequireFromString("10.8")))
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := NewOrder("", companyID, userID, testTotals(), OrderDetails{})
		assert.Error(t, err)
		_, err = NewOrder("ORD-1", uuid.Nil, userID, testTotals(), OrderDetails{})
		assert.Error(t, err)
		_, err = NewOrder("ORD-1", companyID, uuid.Nil, testTotals(), OrderDetails{})
		assert.Error(t, err)
	})

	t.Run("attach items", func(t *testing.T) {
		order, err := NewOrder("ORD-1", companyID, userID, testTotals(), OrderDetails{})
		require.NoError(t, err)
		items := NewLineItems(order.ID, []LineInput{
			{ProductID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(5)},
			{ProductID: uuid.New(), Quantity: 3, Price: decimal.NewFromInt(1)},
		}, time.Now())
		order.AttachItems(items)
		assert.Equal(t, 5, order.ItemCount())
		for _, item := range order.Items {
			assert.Equal(t, order.ID, item.DocumentID)
		}
		assert.True(t, order.Items[0].Amount().Equal(decimal.NewFromInt(10)))
	})
}

func TestNewQuote(t *testing.T) {
	companyID, userID := uuid.New(), uuid.New()

	t.Run("defaults validity", func(t *testing.T) {
		quote, err := NewQuote("QTE-1", companyID, userID, testTotals(), QuoteDetails{ProjectName: "Lobby"}, 0)
		require.NoError(t, err)
		assert.Equal(t, QuoteStatusDraft, quote.Status)
		assert.WithinDuration(t, quote.CreatedAt.Add(DefaultQuoteValidity), quote.ValidUntil, time.Second)
		assert.False(t, quote.IsExpired(time.Now()))
		assert.True(t, quote.IsExpired(quote.ValidUntil.Add(time.Minute)))
	})

	t.Run("explicit valid-until", func(t *testing.T) {
		until := time.Now().Add(72 * time.Hour)
		quote, err := NewQuote("QTE-2", companyID, userID, testTotals(), QuoteDetails{ValidUntil: &until}, time.Hour)
		require.NoError(t, err)
		assert.True(t, until.Equal(quote.ValidUntil))
	})

	t.Run("rejects past valid-until", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := NewQuote("QTE-3", companyID, userID, testTotals(), QuoteDetails{ValidUntil: &past}, 0)
		assert.Error(t, err)
	})

	t.Run("status values", func(t *testing.T) {
		assert.True(t, QuoteStatusAccepted.IsValid())
		assert.False(t, QuoteStatus("open").IsValid())
	})
}
