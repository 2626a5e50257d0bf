package handler

import (
	apptrade "github.com/dealerportal/backend/internal/application/trade"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// OrderHandler lists and places the session company's orders
type OrderHandler struct {
	BaseHandler
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler() *OrderHandler {
	return &OrderHandler{}
}

// List godoc
// @Summary      List orders
// @Description  Newest-first orders of the caller's company
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Order status"
// @Param        from   query string false "Created at or after (RFC 3339)"
// @Param        to     query string false "Created at or before (RFC 3339)"
// @Param        limit  query int    false "Maximum number of orders"
// @Success      200 {object} dto.Response{data=[]dto.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var filter trade.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	docs, err := ws.Orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToOrderResponses(docs))
}

// Create godoc
// @Summary      Place an order
// @Description  Create a pending order for the caller's company. Lines are priced from the catalog.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body apptrade.CreateOrderInput true "Order"
// @Success      201 {object} dto.Response{data=dto.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var in apptrade.CreateOrderInput
	if !h.bindJSON(c, &in) {
		return
	}
	order, err := ws.Orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToOrderResponse(order))
}

// QuoteHandler lists and requests the session company's quotes
type QuoteHandler struct {
	BaseHandler
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler() *QuoteHandler {
	return &QuoteHandler{}
}

// List godoc
// @Summary      List quotes
// @Description  Newest-first quotes of the caller's company
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Quote status"
// @Param        from   query string false "Created at or after (RFC 3339)"
// @Param        to     query string false "Created at or before (RFC 3339)"
// @Param        limit  query int    false "Maximum number of quotes"
// @Success      200 {object} dto.Response{data=[]dto.QuoteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var filter trade.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	docs, err := ws.Quotes.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToQuoteResponses(docs))
}

// Create godoc
// @Summary      Request a quote
// @Description  Create a draft quote for the caller's company. Lines are priced from the catalog.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body apptrade.CreateQuoteInput true "Quote"
// @Success      201 {object} dto.Response{data=dto.QuoteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var in apptrade.CreateQuoteInput
	if !h.bindJSON(c, &in) {
		return
	}
	quote, err := ws.Quotes.CreateQuote(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToQuoteResponse(quote))
}
