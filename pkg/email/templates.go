package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// LineView is one order line as shown in an email.
type LineView struct {
	Name     string
	Details  string
	Quantity int
	Amount   string
}

// OrderConfirmationData feeds the order confirmation templates.
type OrderConfirmationData struct {
	CustomerName string
	OrderID      string
	Lines        []LineView
	Subtotal     string
	Shipping     string
	Tax          string
	Total        string
	Address      string
	TrackURL     string
}

// StatusChangedData feeds the status update templates.
type StatusChangedData struct {
	CustomerName string
	OrderID      string
	StatusLabel  string
	Note         string
	TrackURL     string
}

const confirmationHTML = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #222;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h1>Thanks for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}!</h1>
<p>Order <strong>{{.OrderID}}</strong> has been received.</p>
<table style="width: 100%; border-collapse: collapse;">
{{range .Lines}}<tr><td>{{.Name}}{{if .Details}} <span style="color:#666">({{.Details}})</span>{{end}} &times; {{.Quantity}}</td><td style="text-align:right">{{.Amount}}</td></tr>
{{end}}<tr><td>Subtotal</td><td style="text-align:right">{{.Subtotal}}</td></tr>
<tr><td>Delivery</td><td style="text-align:right">{{.Shipping}}</td></tr>
{{if .Tax}}<tr><td>Tax</td><td style="text-align:right">{{.Tax}}</td></tr>{{end}}
<tr><td><strong>Total</strong></td><td style="text-align:right"><strong>{{.Total}}</strong></td></tr>
</table>
{{if .Address}}<p>Delivering to: {{.Address}}</p>{{end}}
{{if .TrackURL}}<p><a href="{{.TrackURL}}">Track your order</a></p>{{end}}
</div></body></html>`

const confirmationText = `Thanks for your order{{if .CustomerName}}, {{.CustomerName}}{{end}}!

Order {{.OrderID}} has been received.
{{range .Lines}}
- {{.Name}}{{if .Details}} ({{.Details}}){{end}} x{{.Quantity}}: {{.Amount}}{{end}}

Subtotal: {{.Subtotal}}
Delivery: {{.Shipping}}{{if .Tax}}
Tax: {{.Tax}}{{end}}
Total: {{.Total}}
{{if .Address}}
Delivering to: {{.Address}}{{end}}{{if .TrackURL}}
Track your order: {{.TrackURL}}{{end}}
`

const statusHTML = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #222;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h1>Order update</h1>
<p>Hi{{if .CustomerName}} {{.CustomerName}}{{end}}, your order <strong>{{.OrderID}}</strong> is now <strong>{{.StatusLabel}}</strong>.</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}
{{if .TrackURL}}<p><a href="{{.TrackURL}}">View order</a></p>{{end}}
</div></body></html>`

const statusText = `Hi{{if .CustomerName}} {{.CustomerName}}{{end}}, your order {{.OrderID}} is now {{.StatusLabel}}.
{{if .Note}}
{{.Note}}
{{end}}{{if .TrackURL}}
View order: {{.TrackURL}}
{{end}}`

var (
	confirmationHTMLTmpl = htmltemplate.Must(htmltemplate.New("confirmation_html").Parse(confirmationHTML))
	confirmationTextTmpl = texttemplate.Must(texttemplate.New("confirmation_text").Parse(confirmationText))
	statusHTMLTmpl       = htmltemplate.Must(htmltemplate.New("status_html").Parse(statusHTML))
	statusTextTmpl       = texttemplate.Must(texttemplate.New("status_text").Parse(statusText))
)

// RenderOrderConfirmation builds the confirmation email for to.
func RenderOrderConfirmation(to string, data OrderConfirmationData) (Message, error) {
	var html, text bytes.Buffer
	if err := confirmationHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation html: %w", err)
	}
	if err := confirmationTextTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation text: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order confirmed: %s", data.OrderID),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// RenderStatusChanged builds the status update email for to.
func RenderStatusChanged(to string, data StatusChangedData) (Message, error) {
	var html, text bytes.Buffer
	if err := statusHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render status html: %w", err)
	}
	if err := statusTextTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render status text: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s: %s", data.OrderID, data.StatusLabel),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
