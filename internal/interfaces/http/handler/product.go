package handler

import (
	"github.com/dealerportal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the product catalog
type ProductHandler struct {
	BaseHandler
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// List godoc
// @Summary      List products
// @Description  Catalog entries matching the query
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        category    query string false "Category"
// @Param        brand       query string false "Brand"
// @Param        search      query string false "Matches name or SKU"
// @Param        active_only query bool   false "Only active products"
// @Param        limit       query int    false "Maximum number of products"
// @Success      200 {object} dto.Response{data=[]dto.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var q dto.ProductQuery
	if !h.bindQuery(c, &q) {
		return
	}

	products, err := ws.Products.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToProductResponses(products))
}
