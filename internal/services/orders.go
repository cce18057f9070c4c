package services

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/invoice"
	"shopkart_back_end/internal/models"
)

// Viewer is the authenticated caller of a read.
type Viewer struct {
	ID    ObjectID
	Admin bool
}

type OrderService struct {
	orders   OrderStore
	users    UserStore
	coupons  CouponStore
	products ProductStore
	invoices InvoiceRenderer
	lg       *zap.Logger
}

func NewOrderService(orders OrderStore, users UserStore, coupons CouponStore, products ProductStore, invoices InvoiceRenderer, lg *zap.Logger) *OrderService {
	return &OrderService{orders: orders, users: users, coupons: coupons, products: products, invoices: invoices, lg: lg}
}

func customerOf(u *models.User) *models.OrderCustomer {
	if u == nil {
		return nil
	}
	return &models.OrderCustomer{ID: u.ID, Username: u.Username, Email: u.Email}
}

func couponOf(c *models.Coupon) *models.OrderCoupon {
	if c == nil {
		return nil
	}
	return &models.OrderCoupon{ID: c.ID, Name: c.Name, CouponCode: c.CouponCode}
}

// Get returns an order with its customer, coupon and live products. Only
// admins may read orders of other customers.
func (s *OrderService) Get(ctx context.Context, id ObjectID, viewer Viewer) (*models.OrderView, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order does not exist")
	}
	if !viewer.Admin && order.Customer != viewer.ID {
		return nil, apperr.NotFound("Order does not exist")
	}

	var (
		customer *models.User
		coupon   *models.Coupon
		products []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FindByID(gctx, order.Customer)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return errors.Wrap(err, "load customer")
		}
		customer = u
		return nil
	})
	if order.Coupon != nil {
		g.Go(func() error {
			c, err := s.coupons.FindByID(gctx, *order.Coupon)
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return errors.Wrap(err, "load coupon")
			}
			coupon = c
			return nil
		})
	}
	g.Go(func() error {
		ids := make([]ObjectID, len(order.Items))
		for i, it := range order.Items {
			ids[i] = it.ProductID
		}
		ps, err := s.products.FindByIDs(gctx, ids)
		if err != nil {
			return errors.Wrap(err, "load products")
		}
		products = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	items := make([]models.OrderItemView, len(order.Items))
	for i, it := range order.Items {
		items[i] = models.OrderItemView{ID: it.ID, Product: byID[it.ProductID], Quantity: it.Quantity}
	}

	return &models.OrderView{
		Order:    *order,
		Customer: customerOf(customer),
		Coupon:   couponOf(coupon),
		Items:    items,
	}, nil
}

// ListAdmin lists all orders. status is matched case-insensitively and
// ignored when it names no known status.
func (s *OrderService) ListAdmin(ctx context.Context, status string, q models.PageQuery) (models.Page[models.OrderView], error) {
	var f models.OrderFilter
	if st, ok := models.ParseOrderStatus(status); ok {
		f.Status = &st
	}
	return s.list(ctx, f, q)
}

func (s *OrderService) ListForCustomer(ctx context.Context, customer ObjectID, q models.PageQuery) (models.Page[models.OrderView], error) {
	return s.list(ctx, models.OrderFilter{Customer: &customer}, q)
}

func (s *OrderService) list(ctx context.Context, f models.OrderFilter, q models.PageQuery) (models.Page[models.OrderView], error) {
	page, err := s.orders.List(ctx, f, q)
	if err != nil {
		return models.Page[models.OrderView]{}, errors.Wrap(err, "list orders")
	}

	userIDs := make([]ObjectID, 0, len(page.Docs))
	couponIDs := make([]ObjectID, 0, len(page.Docs))
	for _, o := range page.Docs {
		userIDs = append(userIDs, o.Customer)
		if o.Coupon != nil {
			couponIDs = append(couponIDs, *o.Coupon)
		}
	}

	users := map[ObjectID]*models.User{}
	coupons := map[ObjectID]*models.Coupon{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		us, err := s.users.FindByIDs(gctx, userIDs)
		if err != nil {
			return errors.Wrap(err, "load customers")
		}
		for i := range us {
			users[us[i].ID] = &us[i]
		}
		return nil
	})
	if len(couponIDs) > 0 {
		g.Go(func() error {
			cs, err := s.coupons.FindByIDs(gctx, couponIDs)
			if err != nil {
				return errors.Wrap(err, "load coupons")
			}
			for i := range cs {
				coupons[cs[i].ID] = &cs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Page[models.OrderView]{}, err
	}

	views := models.MapDocs(page, func(o models.Order) models.OrderView {
		count := len(o.Items)
		v := models.OrderView{
			Order:           o,
			Customer:        customerOf(users[o.Customer]),
			TotalOrderItems: &count,
		}
		if o.Coupon != nil {
			v.Coupon = couponOf(coupons[*o.Coupon])
		}
		return v
	})
	return views.WithLabels(models.OrderLabels), nil
}

// Invoice renders the PDF invoice of a paid order.
func (s *OrderService) Invoice(ctx context.Context, id ObjectID, viewer Viewer) ([]byte, error) {
	view, err := s.Get(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if !view.IsPaymentDone {
		return nil, apperr.Conflict("Invoice is available once the payment is done")
	}

	pdf, err := s.invoices.Render(ctx, *view)
	if errors.Is(err, invoice.ErrDisabled) {
		return nil, apperr.Unavailable("Invoice generation is not enabled")
	}
	if err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}
	return pdf, nil
}
