package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	orders   *services.OrderService
}

func NewProfileHandler(profiles *services.ProfileService, orders *services.OrderService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, orders: orders}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.profiles.Get(ctx, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p, "User profile fetched successfully")
}

type profileRequest struct {
	FirstName   *string `json:"firstName" binding:"omitempty,max=100"`
	LastName    *string `json:"lastName" binding:"omitempty,max=100"`
	CountryCode *string `json:"countryCode" binding:"omitempty,max=5"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,numeric,min=6,max=15"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.profiles.Update(ctx, currentUserID(c), services.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CountryCode: req.CountryCode,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p, "User profile updated successfully")
}

func (h *ProfileHandler) MyOrders(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.orders.ListForCustomer(ctx, currentUserID(c), pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Orders fetched successfully")
}
