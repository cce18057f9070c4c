package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/models"
)

type CartService struct {
	carts    CartStore
	products ProductStore
	coupons  CouponStore
	lg       *zap.Logger
}

func NewCartService(carts CartStore, products ProductStore, coupons CouponStore, lg *zap.Logger) *CartService {
	return &CartService{carts: carts, products: products, coupons: coupons, lg: lg}
}

// Price joins the owner's cart with live product prices and its coupon.
func (s *CartService) Price(ctx context.Context, owner ObjectID) (*models.PricedCart, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	priced, _, err := s.price(ctx, cart)
	return priced, err
}

func (s *CartService) load(ctx context.Context, owner ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, owner)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return cart, nil
}

// price also returns the coupon referenced by the cart document, which is
// resolved even when the cart has no items and so reports the zero value.
func (s *CartService) price(ctx context.Context, cart *models.Cart) (*models.PricedCart, *models.Coupon, error) {
	if cart == nil {
		return models.EmptyPricedCart(), nil, nil
	}

	var coupon *models.Coupon
	if cart.Coupon != nil {
		c, err := s.coupons.FindByID(ctx, *cart.Coupon)
		switch {
		case err == nil:
			coupon = c
		case !errors.Is(err, models.ErrNotFound):
			return nil, nil, errors.Wrap(err, "load cart coupon")
		}
	}

	if len(cart.Items) == 0 {
		return models.EmptyPricedCart(), coupon, nil
	}

	ids := make([]ObjectID, len(cart.Items))
	for i, it := range cart.Items {
		ids[i] = it.ProductID
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load cart products")
	}
	byID := make(map[ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	total := decimal.Zero
	items := make([]models.PricedCartItem, len(cart.Items))
	for i, it := range cart.Items {
		p := byID[it.ProductID]
		items[i] = models.PricedCartItem{Product: p, Quantity: it.Quantity}
		if p != nil {
			total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	discounted := total
	if coupon != nil {
		discounted = total.Sub(decimal.NewFromFloat(coupon.DiscountValue))
	}

	id := cart.ID
	return &models.PricedCart{
		ID:              &id,
		Items:           items,
		Coupon:          coupon,
		CartTotal:       total.InexactFloat64(),
		DiscountedTotal: discounted.InexactFloat64(),
	}, coupon, nil
}

// AddOrUpdateItem sets the quantity of a product in the cart, creating the
// cart when needed. Any change detaches the coupon.
func (s *CartService) AddOrUpdateItem(ctx context.Context, owner, productID ObjectID, quantity int) (*models.PricedCart, error) {
	if quantity < 1 {
		return nil, apperr.InvalidQuantity("Quantity must be at least 1.")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Product does not exist")
	}
	if quantity > product.Stock {
		if product.Stock > 0 {
			return nil, apperr.InvalidQuantity("Only %d is remaining. But you are adding %d to your cart.", product.Stock, quantity)
		}
		return nil, apperr.InvalidQuantity("The product is out of stock.")
	}

	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{Owner: owner}
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}
	cart.Coupon = nil

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return s.Price(ctx, owner)
}

// RemoveItem drops a product from the cart and detaches a coupon whose
// minimum is no longer met.
func (s *CartService) RemoveItem(ctx context.Context, owner, productID ObjectID) (*models.PricedCart, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "Product not found")
	}
	if err := s.carts.PullItem(ctx, owner, productID); err != nil {
		return nil, errors.Wrap(err, "remove cart item")
	}

	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	priced, coupon, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}
	if coupon == nil || priced.CartTotal >= coupon.MinimumCartValue {
		return priced, nil
	}

	s.lg.Debug("Detaching coupon below minimum",
		zap.String("owner", owner.Hex()),
		zap.String("coupon", coupon.CouponCode),
	)
	if err := s.carts.SetCoupon(ctx, owner, nil); err != nil {
		return nil, errors.Wrap(err, "detach coupon")
	}
	return s.Price(ctx, owner)
}

func (s *CartService) Clear(ctx context.Context, owner ObjectID) (*models.PricedCart, error) {
	if err := s.carts.Clear(ctx, owner); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return s.Price(ctx, owner)
}
