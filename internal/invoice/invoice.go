// Package invoice renders order invoices to PDF with headless Chrome.
package invoice

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"shopkart_back_end/internal/models"
)

//go:embed invoice.html
var invoiceHTML string

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
}).Parse(invoiceHTML))

type line struct {
	Name     string
	Quantity int
	Price    float64
	Total    float64
}

type data struct {
	Order    models.OrderView
	Lines    []line
	Discount float64
	QR       template.URL
}

// QRDataURI encodes content as a PNG QR code usable as an <img> src.
func QRDataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", errors.Wrap(err, "encode qr")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// HTML renders the invoice page. The QR code links to orderURL.
func HTML(view models.OrderView, orderURL string) (string, error) {
	qr, err := QRDataURI(orderURL)
	if err != nil {
		return "", err
	}

	lines := make([]line, 0, len(view.Items))
	for _, it := range view.Items {
		l := line{Name: "Product no longer available", Quantity: it.Quantity}
		if it.Product != nil {
			l.Name = it.Product.Name
			l.Price = it.Product.Price
			l.Total = decimal.NewFromFloat(it.Product.Price).Mul(decimal.NewFromInt(int64(it.Quantity))).InexactFloat64()
		}
		lines = append(lines, l)
	}
	discount := decimal.NewFromFloat(view.OrderPrice).Sub(decimal.NewFromFloat(view.DiscountedOrderPrice)).InexactFloat64()

	var buf bytes.Buffer
	err = invoiceTmpl.Execute(&buf, data{
		Order:    view,
		Lines:    lines,
		Discount: discount,
		QR:       template.URL(qr),
	})
	if err != nil {
		return "", errors.Wrap(err, "render invoice")
	}
	return buf.String(), nil
}

// ChromeRenderer prints invoice HTML through a fresh headless Chrome tab.
type ChromeRenderer struct {
	timeout     time.Duration
	frontendURL string
}

func NewChromeRenderer(frontendURL string, timeout time.Duration) *ChromeRenderer {
	return &ChromeRenderer{timeout: timeout, frontendURL: frontendURL}
}

func (r *ChromeRenderer) Render(ctx context.Context, view models.OrderView) ([]byte, error) {
	html, err := HTML(view, r.frontendURL+"/orders/"+view.ID.Hex())
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			pdf = buf
			return err
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "print invoice")
	}
	return pdf, nil
}

// ErrDisabled is returned by Nop.Render.
var ErrDisabled = errors.New("invoice rendering disabled")

type Nop struct{}

func (Nop) Render(context.Context, models.OrderView) ([]byte, error) {
	return nil, ErrDisabled
}
