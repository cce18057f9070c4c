package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/events"
	"shopkart_back_end/internal/mailer"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/payment"
)

const orderCurrency = "INR"

type CheckoutDeps struct {
	Orders    OrderStore
	Carts     CartStore
	Addresses AddressStore
	Products  ProductStore
	Users     UserStore
	Cart      *CartService
	Providers map[models.PaymentProvider]payment.Provider
	// SigningSecret verifies Razorpay payment signatures.
	SigningSecret string
	Mailer        Mailer
	Events        EventPublisher
	Async         Async
	Logger        *zap.Logger
}

type CheckoutService struct {
	CheckoutDeps
	now func() time.Time
}

func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	return &CheckoutService{CheckoutDeps: deps, now: time.Now}
}

// Checkout is the result of initiating a payment.
type Checkout struct {
	Order         *models.Order
	ProviderOrder *payment.Order
}

func receiptID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// minorUnits converts a rupee amount to paise, rounding half away from zero.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Initiate snapshots the priced cart into an unpaid order and opens a
// provider order for its discounted total.
func (s *CheckoutService) Initiate(ctx context.Context, user, addressID ObjectID, provider models.PaymentProvider) (*Checkout, error) {
	p, ok := s.Providers[provider]
	if !ok {
		return nil, apperr.Unavailable("Payment provider %s is not configured", strings.ToLower(string(provider)))
	}

	address, err := s.Addresses.FindOwned(ctx, addressID, user)
	if err != nil {
		return nil, notFound(err, "Address does not exists")
	}

	priced, err := s.Cart.Price(ctx, user)
	if err != nil {
		return nil, err
	}
	if priced.IsEmpty() {
		return nil, apperr.EmptyCart("User cart is empty.")
	}

	items := make([]models.OrderItem, 0, len(priced.Items))
	for _, it := range priced.Items {
		if it.Product == nil {
			continue
		}
		items = append(items, models.OrderItem{
			ID:        primitive.NewObjectID(),
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, apperr.EmptyCart("User cart is empty.")
	}

	providerOrder, err := p.CreateOrder(ctx, payment.OrderRequest{
		Amount:   minorUnits(priced.DiscountedTotal),
		Currency: orderCurrency,
		Receipt:  receiptID(),
		Notes:    map[string]string{"customer": user.Hex()},
	})
	if err != nil {
		return nil, providerError(err)
	}

	var coupon *ObjectID
	if priced.Coupon != nil {
		id := priced.Coupon.ID
		coupon = &id
	}
	order := &models.Order{
		OrderPrice:           priced.CartTotal,
		DiscountedOrderPrice: priced.DiscountedTotal,
		Coupon:               coupon,
		Customer:             user,
		Items:                items,
		Address:              address.Snapshot(),
		Status:               models.OrderPending,
		PaymentProvider:      provider,
		PaymentID:            providerOrder.ID,
	}
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.Logger.Info("Order created",
		zap.String("order", order.ID.Hex()),
		zap.String("provider", string(provider)),
		zap.String("payment_id", order.PaymentID),
	)
	return &Checkout{Order: order, ProviderOrder: providerOrder}, nil
}

func providerError(err error) error {
	var pe *payment.Error
	switch {
	case errors.As(err, &pe):
		reason := pe.Description
		if reason == "" {
			reason = pe.Reason
		}
		return apperr.PaymentProvider(pe.StatusCode, "%s", reason)
	case errors.Is(err, payment.ErrCircuitOpen):
		return apperr.Unavailable("%s", payment.ErrCircuitOpen.Error())
	default:
		return apperr.New(apperr.ErrPaymentProvider, http.StatusBadGateway, "Something went wrong while initialising the payment")
	}
}

// VerifyPayment checks the Razorpay signature of a completed payment and
// fulfills the order it belongs to.
func (s *CheckoutService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*models.Order, error) {
	if !payment.VerifySignature(s.SigningSecret, orderID, paymentID, signature) {
		return nil, apperr.PaymentVerificationFailed("Invalid razorpay signature")
	}
	return s.Fulfill(ctx, models.ProviderRazorpay, orderID)
}

// Fulfill marks the order created through provider with paymentID as paid
// and runs the follow-ups. Replays are safe: stock leaves inventory once,
// and a replay retries the decrement if an earlier attempt failed.
func (s *CheckoutService) Fulfill(ctx context.Context, provider models.PaymentProvider, paymentID string) (*models.Order, error) {
	order, alreadyPaid, err := s.Orders.MarkPaid(ctx, provider, paymentID)
	if err != nil {
		return nil, notFound(err, "Order does not exist")
	}

	decremented := false
	if !order.StockDecremented {
		if err := s.Products.DecrementStock(ctx, order.Items); err != nil {
			return nil, errors.Wrap(err, "decrement stock")
		}
		if err := s.Orders.MarkStockDecremented(ctx, order.ID); err != nil {
			return nil, errors.Wrap(err, "mark stock decremented")
		}
		order.StockDecremented = true
		decremented = true
	} else if alreadyPaid {
		s.Logger.Info("Payment already fulfilled",
			zap.String("payment_id", paymentID),
			zap.String("provider", string(provider)),
		)
	}

	if err := s.Carts.Clear(ctx, order.Customer); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	paid := *order
	paidAt := s.now()
	s.Async("order confirmation email", func(ctx context.Context) error {
		return s.sendConfirmation(ctx, &paid)
	})
	if decremented {
		s.Async("publish order paid", func(ctx context.Context) error {
			return s.Events.OrderPaid(ctx, events.NewOrderPaid(&paid, paidAt))
		})
	}
	return order, nil
}

func (s *CheckoutService) sendConfirmation(ctx context.Context, order *models.Order) error {
	customer, err := s.Users.FindByID(ctx, order.Customer)
	if err != nil {
		return errors.Wrap(err, "load customer")
	}

	ids := make([]ObjectID, len(order.Items))
	for i, it := range order.Items {
		ids[i] = it.ProductID
	}
	products, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	byID := make(map[ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]mailer.OrderLine, 0, len(order.Items))
	for _, it := range order.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, mailer.OrderLine{Name: p.Name, Quantity: it.Quantity, Price: p.Price})
	}

	msg, err := mailer.OrderConfirmation(customer.Email, customer.Username, lines, order.DiscountedOrderPrice)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}
