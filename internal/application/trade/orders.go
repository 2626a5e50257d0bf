package trade

import (
	"context"

	"github.com/dealerportal/backend/internal/domain/trade"
)

// KindOrder labels order logs and metrics
const KindOrder = "order"

// CreateOrderInput is what a dealer submits to place an order
type CreateOrderInput struct {
	Lines []trade.LineInput `json:"lines" validate:"required,min=1,dive"`
	trade.OrderDetails
}

// OrdersHook is the order list and create flow of one session
type OrdersHook struct {
	*DocumentHook[*trade.Order]
}

// NewOrdersHook creates the orders hook
func NewOrdersHook(sess Session, store trade.DocumentStore[*trade.Order], numbers *trade.NumberGenerator, opts Options) *OrdersHook {
	if numbers == nil {
		numbers = trade.NewNumberGenerator(trade.OrderNumberPrefix)
	}
	return &OrdersHook{DocumentHook: NewDocumentHook(KindOrder, sess, store, numbers, opts)}
}

// Orders returns the current list
func (h *OrdersHook) Orders() []*trade.Order { return h.Items() }

// CreateOrder places a pending order for the session's company
func (h *OrdersHook) CreateOrder(ctx context.Context, in CreateOrderInput) (*trade.Order, error) {
	return h.create(ctx, in, in.Lines, func(s scope, number string, totals trade.Totals) (*trade.Order, error) {
		return trade.NewOrder(number, s.CompanyID, s.UserID, totals, in.OrderDetails)
	})
}
