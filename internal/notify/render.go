package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

type OrderConfirmation struct {
	To        string
	OrderID   uint
	BuyerName string
	Address   string
	Phone     string
	Payment   string
	Lines     []OrderLine
	Total     float64
}

type renderedLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

type orderView struct {
	OrderID   uint
	BuyerName string
	Address   string
	Phone     string
	Payment   string
	Lines     []renderedLine
	Total     string
}

var orderHTML = htmltemplate.Must(htmltemplate.New("order").Parse(`<h2>Thank you for your order, {{.BuyerName}}!</h2>
<p>Order <strong>#{{.OrderID}}</strong></p>
<p>Shipping to: {{.Address}}<br>Phone: {{.Phone}}<br>Payment: {{.Payment}}</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Subtotal}}</td></tr>
{{end}}</table>
<p><strong>Total: {{.Total}}</strong></p>
`))

var orderText = texttemplate.Must(texttemplate.New("order").Parse(`Thank you for your order, {{.BuyerName}}!
Order #{{.OrderID}}
Shipping to: {{.Address}}
Phone: {{.Phone}}
Payment: {{.Payment}}

{{range .Lines}}- {{.Name}} x{{.Quantity}} @ {{.Price}} = {{.Subtotal}}
{{end}}
Total: {{.Total}}
`))

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func RenderOrderConfirmation(o OrderConfirmation) (Message, error) {
	view := orderView{
		OrderID:   o.OrderID,
		BuyerName: o.BuyerName,
		Address:   o.Address,
		Phone:     o.Phone,
		Payment:   o.Payment,
		Lines:     make([]renderedLine, 0, len(o.Lines)),
		Total:     money(o.Total),
	}
	for _, l := range o.Lines {
		sub := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		view.Lines = append(view.Lines, renderedLine{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    money(l.Price),
			Subtotal: sub.StringFixed(2),
		})
	}

	var html, text bytes.Buffer
	if err := orderHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render order html: %w", err)
	}
	if err := orderText.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("render order text: %w", err)
	}

	return Message{
		To:      []string{o.To},
		Subject: fmt.Sprintf("Order #%d confirmation", o.OrderID),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

var resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<p>We received a request to reset your password.</p>
<p><a href="{{.}}">Reset your password</a></p>
<p>The link expires in one hour. If you did not request this, ignore this email.</p>
`))

func RenderPasswordReset(to, link string) (Message, error) {
	var html bytes.Buffer
	if err := resetHTML.Execute(&html, link); err != nil {
		return Message{}, fmt.Errorf("render reset html: %w", err)
	}
	text := "We received a request to reset your password.\n" +
		"Open this link to choose a new one (expires in one hour):\n" + link + "\n"

	return Message{
		To:      []string{to},
		Subject: "Reset your password",
		HTML:    html.String(),
		Text:    text,
	}, nil
}

// MaskCard keeps only the last four digits of a card number.
func MaskCard(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return strings.Repeat("*", len(digits))
	}
	return "**** " + string(digits[len(digits)-4:])
}
