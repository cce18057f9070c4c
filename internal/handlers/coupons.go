package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/services"
)

type CouponHandler struct {
	coupons *services.CouponService
}

func NewCouponHandler(coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type createCouponRequest struct {
	Name             string    `json:"name" binding:"required"`
	CouponCode       string    `json:"couponCode" binding:"required,min=2"`
	Type             string    `json:"type" binding:"omitempty,oneof=FLAT"`
	DiscountValue    float64   `json:"discountValue" binding:"required,gt=0"`
	MinimumCartValue float64   `json:"minimumCartValue" binding:"gte=0"`
	StartDate        time.Time `json:"startDate" binding:"required"`
	ExpiryDate       time.Time `json:"expiryDate" binding:"required,gtfield=StartDate"`
}

type updateCouponRequest struct {
	Name             *string    `json:"name" binding:"omitempty,min=1"`
	CouponCode       *string    `json:"couponCode" binding:"omitempty,min=2"`
	Type             *string    `json:"type" binding:"omitempty,oneof=FLAT"`
	DiscountValue    *float64   `json:"discountValue" binding:"omitempty,gt=0"`
	MinimumCartValue *float64   `json:"minimumCartValue" binding:"omitempty,gte=0"`
	StartDate        *time.Time `json:"startDate"`
	ExpiryDate       *time.Time `json:"expiryDate"`
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode" binding:"required"`
}

type couponStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req createCouponRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	coupon, err := h.coupons.Create(ctx, currentUserID(c), services.CouponInput{
		Name:             req.Name,
		CouponCode:       req.CouponCode,
		Type:             models.CouponType(req.Type),
		DiscountValue:    req.DiscountValue,
		MinimumCartValue: req.MinimumCartValue,
		StartDate:        req.StartDate,
		ExpiryDate:       req.ExpiryDate,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, coupon, "Coupon created successfully")
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "couponId")
	if err != nil {
		fail(c, err)
		return
	}
	var req updateCouponRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	patch := services.CouponPatch{
		Name:             req.Name,
		CouponCode:       req.CouponCode,
		DiscountValue:    req.DiscountValue,
		MinimumCartValue: req.MinimumCartValue,
		StartDate:        req.StartDate,
		ExpiryDate:       req.ExpiryDate,
	}
	if req.Type != nil {
		t := models.CouponType(*req.Type)
		patch.Type = &t
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	coupon, err := h.coupons.Update(ctx, id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, coupon, "Coupon updated successfully")
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "couponId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	coupon, err := h.coupons.Delete(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deletedCoupon": coupon}, "Coupon deleted successfully")
}

func (h *CouponHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "couponId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	coupon, err := h.coupons.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, coupon, "Coupon fetched successfully")
}

func (h *CouponHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.coupons.List(ctx, pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Coupons fetched successfully")
}

func (h *CouponHandler) SetStatus(c *gin.Context) {
	id, err := objectIDParam(c, "couponId")
	if err != nil {
		fail(c, err)
		return
	}
	var req couponStatusRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	coupon, err := h.coupons.SetActive(ctx, id, *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, coupon, coupon.StatusMessage())
}

func (h *CouponHandler) Apply(c *gin.Context) {
	var req applyCouponRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.coupons.Apply(ctx, currentUserID(c), req.CouponCode)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Coupon applied successfully")
}

func (h *CouponHandler) Remove(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.coupons.RemoveFromCart(ctx, currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Coupon removed successfully")
}

func (h *CouponHandler) AvailableForCustomer(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.coupons.ListValidForCustomer(ctx, pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Customer coupons fetched successfully")
}
