package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/services"
)

type AddressHandler struct {
	addresses *services.AddressService
}

func NewAddressHandler(addresses *services.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

type createAddressRequest struct {
	AddressLine1 string `json:"addressLine1" binding:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" binding:"required"`
	Country      string `json:"country" binding:"required"`
	Pincode      string `json:"pincode" binding:"required,len=6"`
	State        string `json:"state" binding:"required"`
}

type updateAddressRequest struct {
	AddressLine1 *string `json:"addressLine1" binding:"omitempty,min=1"`
	AddressLine2 *string `json:"addressLine2"`
	City         *string `json:"city" binding:"omitempty,min=1"`
	Country      *string `json:"country" binding:"omitempty,min=1"`
	Pincode      *string `json:"pincode" binding:"omitempty,len=6"`
	State        *string `json:"state" binding:"omitempty,min=1"`
}

func (h *AddressHandler) Create(c *gin.Context) {
	var req createAddressRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Create(ctx, currentUserID(c), services.AddressInput{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Country:      req.Country,
		Pincode:      req.Pincode,
		State:        req.State,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, a, "Address created successfully")
}

func (h *AddressHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.addresses.List(ctx, currentUserID(c), pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Addresses fetched successfully")
}

func (h *AddressHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "addressId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Get(ctx, id, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, a, "Address fetched successfully")
}

func (h *AddressHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "addressId")
	if err != nil {
		fail(c, err)
		return
	}
	var req updateAddressRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Update(ctx, id, currentUserID(c), services.AddressPatch{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Country:      req.Country,
		Pincode:      req.Pincode,
		State:        req.State,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, a, "Address updated successfully")
}

func (h *AddressHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "addressId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Delete(ctx, id, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deletedAddress": a}, "Address deleted successfully")
}
