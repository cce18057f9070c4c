package mailer

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) },
}).ParseFS(templateFS, "templates/*.html"))

type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

func (l OrderLine) Total() float64 {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))).InexactFloat64()
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "render %s", name)
	}
	return buf.String(), nil
}

func EmailVerification(to, username, link string) (Message, error) {
	html, err := render("verify_email.html", map[string]string{"Username": username, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Please verify your email", HTML: html}, nil
}

func ForgotPassword(to, username, link string) (Message, error) {
	html, err := render("forgot_password.html", map[string]string{"Username": username, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Password reset request", HTML: html}, nil
}

func OrderConfirmation(to, username string, items []OrderLine, total float64) (Message, error) {
	html, err := render("order_confirmation.html", map[string]any{
		"Username": username,
		"Items":    items,
		"Total":    total,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Your order is confirmed", HTML: html}, nil
}
