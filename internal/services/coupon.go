package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/models"
)

type CouponInput struct {
	Name             string
	CouponCode       string
	Type             models.CouponType
	DiscountValue    float64
	MinimumCartValue float64
	StartDate        time.Time
	ExpiryDate       time.Time
}

// CouponPatch carries the fields of an update; nil fields keep the stored
// value.
type CouponPatch struct {
	Name             *string
	CouponCode       *string
	Type             *models.CouponType
	DiscountValue    *float64
	MinimumCartValue *float64
	StartDate        *time.Time
	ExpiryDate       *time.Time
}

type CouponService struct {
	coupons CouponStore
	carts   CartStore
	cart    *CartService
	now     func() time.Time
	lg      *zap.Logger
}

func NewCouponService(coupons CouponStore, carts CartStore, cart *CartService, lg *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, carts: carts, cart: cart, now: time.Now, lg: lg}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func checkRange(discount, minimum float64) error {
	if minimum < discount {
		return apperr.InvalidRange("The minimumCartValue must be greater than or equal to the discountValue")
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, owner ObjectID, in CouponInput) (*models.Coupon, error) {
	code := normalizeCode(in.CouponCode)
	existing, err := s.coupons.FindByCode(ctx, code)
	switch {
	case err == nil:
		return nil, apperr.Conflict("The couponCode %s is already exists", existing.CouponCode)
	case !errors.Is(err, models.ErrNotFound):
		return nil, errors.Wrap(err, "check coupon code")
	}
	if err := checkRange(in.DiscountValue, in.MinimumCartValue); err != nil {
		return nil, err
	}

	typ := in.Type
	if typ == "" {
		typ = models.CouponFlat
	}
	c := &models.Coupon{
		Name:             in.Name,
		CouponCode:       code,
		Type:             typ,
		DiscountValue:    in.DiscountValue,
		MinimumCartValue: in.MinimumCartValue,
		StartDate:        in.StartDate,
		ExpiryDate:       in.ExpiryDate,
		IsActive:         true,
		Owner:            owner,
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, apperr.Conflict("The couponCode %s is already exists", code)
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

func (s *CouponService) Update(ctx context.Context, id ObjectID, patch CouponPatch) (*models.Coupon, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Coupon with given id does not exist")
	}

	if patch.CouponCode != nil {
		code := normalizeCode(*patch.CouponCode)
		other, err := s.coupons.FindByCode(ctx, code)
		switch {
		case err == nil && other.ID != c.ID:
			return nil, apperr.Conflict("Coupon code with %s already exists", other.CouponCode)
		case err != nil && !errors.Is(err, models.ErrNotFound):
			return nil, errors.Wrap(err, "check coupon code")
		}
		c.CouponCode = code
	}
	if patch.DiscountValue != nil {
		c.DiscountValue = *patch.DiscountValue
	}
	if patch.MinimumCartValue != nil {
		c.MinimumCartValue = *patch.MinimumCartValue
	}
	if err := checkRange(c.DiscountValue, c.MinimumCartValue); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.StartDate != nil {
		c.StartDate = *patch.StartDate
	}
	if patch.ExpiryDate != nil {
		c.ExpiryDate = *patch.ExpiryDate
	}

	if err := s.coupons.Update(ctx, c); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, apperr.Conflict("Coupon code with %s already exists", c.CouponCode)
		}
		return nil, notFound(err, "Coupon with given id does not exist")
	}
	return c, nil
}

// Apply attaches the coupon with code to the owner's cart when it is live
// and the cart total reaches its minimum.
func (s *CouponService) Apply(ctx context.Context, owner ObjectID, code string) (*models.PricedCart, error) {
	coupon, err := s.coupons.FindApplicable(ctx, normalizeCode(code), s.now())
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.InvalidCoupon("Coupon is not valid, Please enter a valid coupon.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find coupon")
	}

	priced, err := s.cart.Price(ctx, owner)
	if err != nil {
		return nil, err
	}
	if priced.IsEmpty() {
		return nil, apperr.EmptyCart("User cart is empty.")
	}
	if priced.CartTotal < coupon.MinimumCartValue {
		short := decimal.NewFromFloat(coupon.MinimumCartValue).Sub(decimal.NewFromFloat(priced.CartTotal))
		return nil, apperr.BelowMinimum("Added items worth INR %s /- or more to apply this coupon", short.String())
	}

	id := coupon.ID
	if err := s.carts.SetCoupon(ctx, owner, &id); err != nil {
		return nil, errors.Wrap(err, "attach coupon")
	}
	return s.cart.Price(ctx, owner)
}

func (s *CouponService) RemoveFromCart(ctx context.Context, owner ObjectID) (*models.PricedCart, error) {
	if err := s.carts.SetCoupon(ctx, owner, nil); err != nil {
		return nil, errors.Wrap(err, "detach coupon")
	}
	return s.cart.Price(ctx, owner)
}

func (s *CouponService) SetActive(ctx context.Context, id ObjectID, active bool) (*models.Coupon, error) {
	c, err := s.coupons.SetActive(ctx, id, active)
	if err != nil {
		return nil, notFound(err, "Coupon does not exist")
	}
	return c, nil
}

// ListValidForCustomer lists active coupons that have started. Expired ones
// are included and rejected on apply.
func (s *CouponService) ListValidForCustomer(ctx context.Context, q models.PageQuery) (models.Page[models.Coupon], error) {
	now := s.now()
	page, err := s.coupons.List(ctx, models.CouponFilter{ActiveAt: &now}, q)
	if err != nil {
		return models.Page[models.Coupon]{}, errors.Wrap(err, "list coupons")
	}
	return page.WithLabels(models.CouponLabels), nil
}

func (s *CouponService) List(ctx context.Context, q models.PageQuery) (models.Page[models.Coupon], error) {
	page, err := s.coupons.List(ctx, models.CouponFilter{}, q)
	if err != nil {
		return models.Page[models.Coupon]{}, errors.Wrap(err, "list coupons")
	}
	return page.WithLabels(models.CouponLabels), nil
}

func (s *CouponService) Get(ctx context.Context, id ObjectID) (*models.Coupon, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Coupon is not found, Please give valid coupon.")
	}
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, id ObjectID) (*models.Coupon, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Coupon is not found or deleted already")
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		return nil, notFound(err, "Coupon is not found or deleted already")
	}
	return c, nil
}
