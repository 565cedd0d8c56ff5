package httpserver

import (
	"net/http"

	"farmisian/internal/domain"
	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

func (h *handlers) quote(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CheckoutSvc.Quote(c.Request.Context(), sessionID(c)))
}

func (h *handlers) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid checkout body")
		return
	}
	user := currentUser(c)
	order, err := h.deps.CheckoutSvc.Place(c.Request.Context(), sessionID(c), *user, req.ShippingAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
