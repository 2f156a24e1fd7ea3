package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/email"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
	"github.com/angelmondragon/kitstore-backend/pkg/sms"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"

	kindOrderConfirmation = "order_confirmation"
	kindStatusChanged     = "status_changed"

	defaultDispatchTimeout = 15 * time.Second
)

// DispatcherParams wires the outbound channels. A nil sender disables its
// channel.
type DispatcherParams struct {
	Email        email.Sender
	SMS          sms.Sender
	Metrics      *metrics.NotificationMetrics
	Logger       *logger.Logger
	TrackBaseURL string
	Timeout      time.Duration
}

// Dispatcher formats and sends customer notifications. It never returns
// errors: failures are logged and counted.
type Dispatcher struct {
	email    email.Sender
	sms      sms.Sender
	metrics  *metrics.NotificationMetrics
	logg     *logger.Logger
	trackURL string
	timeout  time.Duration
}

func NewDispatcher(params DispatcherParams) *Dispatcher {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		email:    params.Email,
		sms:      params.SMS,
		metrics:  params.Metrics,
		logg:     params.Logger,
		trackURL: strings.TrimRight(params.TrackBaseURL, "/"),
		timeout:  timeout,
	}
}

// OrderConfirmation tells the customer their order was received.
func (d *Dispatcher) OrderConfirmation(ctx context.Context, order models.Order) {
	contact := types.CustomerContact{Name: order.CustomerName, Email: order.CustomerEmail, Phone: order.CustomerPhone}
	data := email.OrderConfirmationData{
		CustomerName: firstName(contact.Name),
		OrderID:      order.ID,
		Lines:        lineViews(order),
		Subtotal:     money(order.Currency, order.Subtotal.StringFixed(2)),
		Shipping:     money(order.Currency, order.ShippingCost.StringFixed(2)),
		Total:        money(order.Currency, order.Total.StringFixed(2)),
		Address:      formatAddress(order.Shipping),
		TrackURL:     d.trackLink(order.ID),
	}
	if order.Tax.IsPositive() {
		data.Tax = money(order.Currency, order.Tax.StringFixed(2))
	}
	text := fmt.Sprintf("Hi %s, we received your order %s (%s). Track it at %s",
		data.CustomerName, order.ID, data.Total, data.TrackURL)

	d.dispatch(ctx, kindOrderConfirmation, order.ID, contact,
		func(to string) (email.Message, error) { return email.RenderOrderConfirmation(to, data) },
		text)
}

// StatusChanged tells the customer about the order's current status. note is
// the one recorded with the change; when empty the latest history entry for
// that status supplies it.
func (d *Dispatcher) StatusChanged(ctx context.Context, order models.Order, contact types.CustomerContact, note string) {
	if strings.TrimSpace(note) == "" {
		note = latestNote(order)
	}
	data := email.StatusChangedData{
		CustomerName: firstName(contact.Name),
		OrderID:      order.ID,
		StatusLabel:  order.Status.Label(),
		Note:         note,
		TrackURL:     d.trackLink(order.ID),
	}
	text := fmt.Sprintf("Hi %s, your order %s is now %s.", data.CustomerName, order.ID, data.StatusLabel)
	if order.Status == enums.OrderStatusOutForDelivery {
		text += " Please keep your phone close."
	}
	if data.TrackURL != "" {
		text += " Track: " + data.TrackURL
	}

	d.dispatch(ctx, kindStatusChanged, order.ID, contact,
		func(to string) (email.Message, error) { return email.RenderStatusChanged(to, data) },
		text)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind, orderID string, contact types.CustomerContact, render func(to string) (email.Message, error), text string) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	logCtx := ctx
	if d.logg != nil {
		logCtx = d.logg.WithFields(ctx, map[string]any{"order_id": orderID, "kind": kind})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.sendEmail(logCtx, kind, contact.Email, render)
	}()
	go func() {
		defer wg.Done()
		d.sendSMS(logCtx, kind, contact.Phone, text)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.warn(logCtx, "notification dispatch timed out")
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, kind, to string, render func(to string) (email.Message, error)) {
	to = strings.TrimSpace(to)
	if d.email == nil || to == "" {
		d.count(channelEmail, kind, "skipped")
		return
	}
	msg, err := render(to)
	if err != nil {
		d.fail(ctx, channelEmail, kind, err)
		return
	}
	if err := d.email.Send(ctx, msg); err != nil {
		d.fail(ctx, channelEmail, kind, err)
		return
	}
	d.count(channelEmail, kind, "sent")
}

func (d *Dispatcher) sendSMS(ctx context.Context, kind, to, text string) {
	to = strings.TrimSpace(to)
	if d.sms == nil || to == "" {
		d.count(channelSMS, kind, "skipped")
		return
	}
	if err := d.sms.Send(ctx, to, text); err != nil {
		d.fail(ctx, channelSMS, kind, err)
		return
	}
	d.count(channelSMS, kind, "sent")
}

func (d *Dispatcher) fail(ctx context.Context, channel, kind string, err error) {
	d.count(channel, kind, "failed")
	if d.logg != nil {
		d.logg.Error(d.logg.WithField(ctx, "channel", channel), "notification send failed", err)
	}
}

func (d *Dispatcher) warn(ctx context.Context, msg string) {
	if d.logg != nil {
		d.logg.Warn(ctx, msg)
	}
}

func (d *Dispatcher) count(channel, kind, outcome string) {
	if d.metrics == nil {
		return
	}
	switch outcome {
	case "sent":
		d.metrics.Sent(channel, kind)
	case "failed":
		d.metrics.Failed(channel, kind)
	default:
		d.metrics.Skipped(channel, kind)
	}
}

func (d *Dispatcher) trackLink(orderID string) string {
	if d.trackURL == "" {
		return ""
	}
	return d.trackURL + "/orders/" + orderID
}

func lineViews(order models.Order) []email.LineView {
	out := make([]email.LineView, 0, len(order.Items))
	for _, item := range order.Items {
		var details []string
		if item.ColorName != "" {
			details = append(details, item.ColorName)
		}
		if item.Size != "" {
			details = append(details, "Size "+item.Size)
		}
		if !item.Customization.IsZero() {
			details = append(details, strings.TrimSpace(item.Customization.Name+" "+item.Customization.Number))
		}
		out = append(out, email.LineView{
			Name:     item.Name,
			Details:  strings.Join(details, " / "),
			Quantity: item.Quantity,
			Amount:   money(order.Currency, item.LineTotal.StringFixed(2)),
		})
	}
	return out
}

func latestNote(order models.Order) string {
	for i := len(order.StatusHistory) - 1; i >= 0; i-- {
		if order.StatusHistory[i].Status == order.Status {
			return order.StatusHistory[i].Note
		}
	}
	return ""
}

func formatAddress(s types.ShippingDetails) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.Address, s.Landmark, s.City, s.Region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func money(currency, amount string) string {
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}
