package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderItemMarshalsMoneyAsNumbers(t *testing.T) {
	item := OrderItem{ProductID: "p1", Price: decimal.RequireFromString("50.00"), Quantity: 1, LineTotal: decimal.NewFromInt(50)}

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"price":50`)
	require.NotContains(t, string(raw), `"price":"50`)
}

func TestCustomizationIsZero(t *testing.T) {
	var none *Customization
	require.True(t, none.IsZero())
	require.True(t, (&Customization{}).IsZero())
	require.False(t, (&Customization{Number: "7"}).IsZero())
}
