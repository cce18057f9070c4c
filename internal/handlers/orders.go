package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/services"
)

const maxWebhookBody = 64 << 10

// WebhookVerifier authenticates Stripe webhook deliveries and reports the
// payment intent of a payment_intent.succeeded event.
type WebhookVerifier interface {
	SucceededIntent(payload []byte, signature string) (id string, ok bool, err error)
}

type OrderHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
	// stripe is nil when Stripe is not configured.
	stripe WebhookVerifier
	lg     *zap.Logger
}

func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService, stripe WebhookVerifier, lg *zap.Logger) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, stripe: stripe, lg: lg}
}

type checkoutRequest struct {
	AddressID string `json:"addressId" binding:"required"`
}

func (h *OrderHandler) initiate(c *gin.Context, provider models.PaymentProvider) {
	var req checkoutRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	addressID, err := parseHexField("addressId", req.AddressID)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.checkout.Initiate(ctx, currentUserID(c), addressID, provider)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, out.ProviderOrder, "Payment order generated successfully")
}

func (h *OrderHandler) RazorpayOrder(c *gin.Context) {
	h.initiate(c, models.ProviderRazorpay)
}

func (h *OrderHandler) StripeOrder(c *gin.Context) {
	h.initiate(c, models.ProviderStripe)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

func (h *OrderHandler) VerifyRazorpayPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.checkout.VerifyPayment(ctx, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, order, "Order placed successfully")
}

func (h *OrderHandler) StripeWebhook(c *gin.Context) {
	if h.stripe == nil {
		fail(c, apperr.Unavailable("Stripe payments are not enabled"))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, errors.Wrap(err, "read webhook body"))
		return
	}
	intentID, ok, err := h.stripe.SucceededIntent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.lg.Warn("Rejected stripe webhook", zap.Error(err))
		fail(c, apperr.PaymentVerificationFailed("Invalid stripe signature"))
		return
	}
	if !ok {
		respond(c, http.StatusOK, gin.H{"received": true}, "Event ignored")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.checkout.Fulfill(ctx, models.ProviderStripe, intentID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"received": true}, "Order placed successfully")
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "orderId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.orders.Get(ctx, id, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order, "Order fetched successfully")
}

func (h *OrderHandler) Invoice(c *gin.Context) {
	id, err := objectIDParam(c, "orderId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pdf, err := h.orders.Invoice(ctx, id, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoice-`+id.Hex()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *OrderHandler) ListAdmin(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.orders.ListAdmin(ctx, c.Query("status"), pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Orders fetched successfully")
}
