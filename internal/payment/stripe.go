package payment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const EventPaymentIntentSucceeded = "payment_intent.succeeded"

// Stripe creates payment intents. The intent id plays the part of the
// provider order id.
type Stripe struct {
	intents       paymentintent.Client
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return NewStripeWithBackend(secretKey, webhookSecret, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeWithBackend(secretKey, webhookSecret string, backend stripe.Backend) *Stripe {
	return &Stripe{
		intents:       paymentintent.Client{B: backend, Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

func (s *Stripe) Name() string {
	return "stripe"
}

func (s *Stripe) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", req.Receipt)
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			return nil, &Error{
				StatusCode:  se.HTTPStatusCode,
				Code:        string(se.Code),
				Reason:      string(se.Type),
				Description: se.Msg,
			}
		}
		return nil, errors.Wrap(err, "stripe create payment intent")
	}

	return &Order{
		ID:           pi.ID,
		Entity:       "payment_intent",
		Amount:       pi.Amount,
		AmountDue:    pi.Amount - pi.AmountReceived,
		AmountPaid:   pi.AmountReceived,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Receipt:      req.Receipt,
		Status:       string(pi.Status),
		Notes:        req.Notes,
		CreatedAt:    pi.Created,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ErrWebhookSecretMissing is returned for every webhook when no signing
// secret is configured.
var ErrWebhookSecretMissing = errors.New("stripe webhook secret not configured")

// SucceededIntent verifies a webhook payload and returns the id of the
// payment intent it confirms. ok is false for any other event type.
func (s *Stripe) SucceededIntent(payload []byte, signature string) (id string, ok bool, err error) {
	if s.webhookSecret == "" {
		return "", false, ErrWebhookSecretMissing
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", false, errors.Wrap(err, "verify stripe webhook")
	}
	if event.Type != EventPaymentIntentSucceeded {
		return "", false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return "", false, errors.Wrap(err, "decode payment intent")
	}
	return pi.ID, true, nil
}
