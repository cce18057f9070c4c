package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
	lg        *zap.Logger
}

func NewRazorpay(keyID, keySecret, baseURL string, lg *zap.Logger) *Razorpay {
	return &Razorpay{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		lg:        lg,
	}
}

func (r *Razorpay) Name() string {
	return "razorpay"
}

func (r *Razorpay) Secret() string {
	return r.keySecret
}

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode order")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(r.keyID, r.keySecret)

	res, err := r.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "razorpay create order")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
				Reason      string `json:"reason"`
			} `json:"error"`
		}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			r.lg.Warn("Decode razorpay error body",
				zap.Int("status", res.StatusCode),
				zap.Error(err),
			)
			e.Error.Description = http.StatusText(res.StatusCode)
		}
		return nil, &Error{
			StatusCode:  res.StatusCode,
			Code:        e.Error.Code,
			Reason:      e.Error.Reason,
			Description: e.Error.Description,
		}
	}

	var order Order
	if err := json.NewDecoder(res.Body).Decode(&order); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return &order, nil
}
