package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

type stubSES struct {
	input *ses.SendEmailInput
	err   error
}

func (s *stubSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderBuildsInput(t *testing.T) {
	stub := &stubSES{}
	sender := newSESSender(stub, config.EmailConfig{FromAddress: "orders@kitstore.test", FromName: "KitStore"})

	err := sender.Send(context.Background(), Message{To: "fan@example.com", Subject: "Hi", HTML: "<p>x</p>", Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, stub.input)
	assert.Equal(t, "KitStore <orders@kitstore.test>", aws.ToString(stub.input.Source))
	assert.Equal(t, []string{"fan@example.com"}, stub.input.Destination.ToAddresses)
	assert.Equal(t, "<p>x</p>", aws.ToString(stub.input.Message.Body.Html.Data))
	assert.Equal(t, "x", aws.ToString(stub.input.Message.Body.Text.Data))
}

func TestSESSenderWrapsFailures(t *testing.T) {
	stub := &stubSES{err: errors.New("throttled")}
	sender := newSESSender(stub, config.EmailConfig{FromAddress: "orders@kitstore.test"})

	err := sender.Send(context.Background(), Message{To: "fan@example.com", Subject: "Hi", Text: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	err = sender.Send(context.Background(), Message{Subject: "Hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRenderOrderConfirmation(t *testing.T) {
	msg, err := RenderOrderConfirmation("fan@example.com", OrderConfirmationData{
		CustomerName: "Ama <script>",
		OrderID:      "KS-20250301-abcd1234",
		Lines:        []LineView{{Name: "Home Jersey", Details: "Red, L", Quantity: 2, Amount: "GHS 300.00"}},
		Subtotal:     "GHS 300.00",
		Shipping:     "GHS 20.00",
		Total:        "GHS 320.00",
		TrackURL:     "https://kitstore.test/orders/KS-20250301-abcd1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order confirmed: KS-20250301-abcd1234", msg.Subject)
	assert.Contains(t, msg.HTML, "Home Jersey")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "Home Jersey (Red, L) x2: GHS 300.00")
	assert.Contains(t, msg.Text, "Total: GHS 320.00")
	assert.False(t, strings.Contains(msg.Text, "Tax:"))
}

func TestRenderStatusChanged(t *testing.T) {
	msg, err := RenderStatusChanged("fan@example.com", StatusChangedData{
		CustomerName: "Kofi",
		OrderID:      "KS-1",
		StatusLabel:  "Out for Delivery",
		Note:         "Rider is 10 minutes away",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order KS-1: Out for Delivery", msg.Subject)
	assert.Contains(t, msg.Text, "your order KS-1 is now Out for Delivery.")
	assert.Contains(t, msg.HTML, "Rider is 10 minutes away")
}
