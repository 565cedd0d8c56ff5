package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.View(c.Request.Context(), sessionID(c)))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}
	view, err := h.deps.CartSvc.Add(c.Request.Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// updateCartItem sets an absolute quantity; zero or less removes the line.
func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	view := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), sessionID(c), c.Param("productId"), *req.Quantity)
	c.JSON(http.StatusOK, view)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.Remove(c.Request.Context(), sessionID(c), c.Param("productId")))
}

func (h *handlers) clearCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.Clear(c.Request.Context(), sessionID(c)))
}

func (h *handlers) setDrawer(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := h.deps.CartSvc.SetDrawer(c.Request.Context(), sessionID(c), action)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
