package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/services"
)

type CartHandler struct {
	cart *services.CartService
}

func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.cart.Price(ctx, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Cart fetched successfully")
}

type cartItemRequest struct {
	Quantity *int `json:"quantity" binding:"omitnil,min=1"`
}

func (h *CartHandler) AddOrUpdateItem(c *gin.Context) {
	productID, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	var req cartItemRequest
	if c.Request.ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.cart.AddOrUpdateItem(ctx, currentUserID(c), productID, quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Item added successfully")
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.cart.RemoveItem(ctx, currentUserID(c), productID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Cart item removed successfully")
}

func (h *CartHandler) Clear(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.cart.Clear(ctx, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Cart has been cleared")
}
