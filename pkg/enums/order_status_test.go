package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatusNormalizesInput(t *testing.T) {
	cases := map[string]OrderStatus{
		"submitted":        OrderStatusSubmitted,
		" Delivered ":      OrderStatusDelivered,
		"Out for delivery": OrderStatusOutForDelivery,
		"in-transit":       OrderStatusInTransit,
		"AWAITING_PAYMENT": OrderStatusAwaitingPayment,
	}
	for raw, want := range cases {
		got, err := ParseOrderStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseOrderStatus("shipped")
	require.Error(t, err)
}

func TestOrderStatusGrouping(t *testing.T) {
	assert.True(t, OrderStatusInTransit.IsShipping())
	assert.True(t, OrderStatusOutForDelivery.IsShipping())
	assert.False(t, OrderStatusProcessing.IsShipping())

	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusSubmitted.IsTerminal())

	assert.Equal(t, "Out for Delivery", OrderStatusOutForDelivery.Label())
	assert.Len(t, OrderStatuses(), 8)
}

func TestParseSportAcceptsSoccer(t *testing.T) {
	sport, err := ParseSport("Soccer")
	require.NoError(t, err)
	assert.Equal(t, SportFootball, sport)

	sport, err = ParseSport("american football")
	require.NoError(t, err)
	assert.Equal(t, SportAmerican, sport)
}

func TestPaymentSessionStatusFromGateway(t *testing.T) {
	assert.Equal(t, PaymentSessionPaid, PaymentSessionStatusFromGateway("success"))
	assert.Equal(t, PaymentSessionFailed, PaymentSessionStatusFromGateway("reversed"))
	assert.Equal(t, PaymentSessionAbandoned, PaymentSessionStatusFromGateway("abandoned"))
	assert.Equal(t, PaymentSessionInitialized, PaymentSessionStatusFromGateway("ongoing"))
}
