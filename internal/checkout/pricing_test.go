package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

func TestPriceUsesCatalogPrices(t *testing.T) {
	jersey := models.Product{
		ID:       uuid.New(),
		Name:     "Home Jersey",
		TeamID:   "hearts-of-oak",
		Price:    decimal.RequireFromString("149.99"),
		Colors:   []types.ProductColor{{ID: "red", Name: "Red"}},
		IsActive: true,
	}
	scarf := models.Product{ID: uuid.New(), Name: "Scarf", Price: decimal.NewFromInt(40), IsActive: true}
	catalog := map[uuid.UUID]models.Product{jersey.ID: jersey, scarf.ID: scarf}

	quote, err := Price([]types.CheckoutLine{
		{ProductID: jersey.ID.String(), ColorID: "red", Size: "L", Quantity: 2, Customization: &types.Customization{Name: "ADDO", Number: "9"}},
		{ProductID: scarf.ID.String(), Quantity: 1},
	}, catalog, decimal.NewFromInt(25), decimal.RequireFromString("0.15"))
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(decimal.RequireFromString("339.98")))
	assert.True(t, quote.Tax.Equal(decimal.RequireFromString("51.00")))
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("415.98")))
	assert.Equal(t, 3, quote.ItemCount)
	assert.Equal(t, "Red", quote.Items[0].ColorName)
	assert.Equal(t, "9", quote.Items[0].Customization.Number)
	assert.Nil(t, quote.Items[1].Customization)
}

func TestPriceFlatDeliveryFeeWithoutTax(t *testing.T) {
	a := models.Product{
		ID:       uuid.New(),
		Name:     "Away Jersey",
		Price:    decimal.NewFromInt(50),
		Colors:   []types.ProductColor{{ID: "red", Name: "Red"}},
		IsActive: true,
	}
	b := models.Product{ID: uuid.New(), Name: "Wristband", Price: decimal.NewFromInt(20), IsActive: true}
	catalog := map[uuid.UUID]models.Product{a.ID: a, b.ID: b}

	quote, err := Price([]types.CheckoutLine{
		{ProductID: a.ID.String(), ColorID: "red", Quantity: 1},
		{ProductID: b.ID.String(), Quantity: 2},
	}, catalog, decimal.NewFromInt(15), decimal.Zero)
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(90)), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.ShippingCost.Equal(decimal.NewFromInt(15)))
	assert.True(t, quote.Tax.IsZero())
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(105)), "total %s", quote.Total)
	assert.Equal(t, 3, quote.ItemCount)
	assert.True(t, quote.Items[1].LineTotal.Equal(decimal.NewFromInt(40)))
}

func TestPriceRejectsBadLines(t *testing.T) {
	active := models.Product{ID: uuid.New(), Name: "Cap", Price: decimal.NewFromInt(10), IsActive: true}
	inactive := models.Product{ID: uuid.New(), Name: "Old Cap", Price: decimal.NewFromInt(10)}
	catalog := map[uuid.UUID]models.Product{active.ID: active, inactive.ID: inactive}

	cases := []struct {
		line types.CheckoutLine
		code pkgerrors.Code
	}{
		{types.CheckoutLine{ProductID: active.ID.String(), Quantity: 0}, pkgerrors.CodeValidation},
		{types.CheckoutLine{ProductID: "nope", Quantity: 1}, pkgerrors.CodeValidation},
		{types.CheckoutLine{ProductID: uuid.NewString(), Quantity: 1}, pkgerrors.CodeNotFound},
		{types.CheckoutLine{ProductID: inactive.ID.String(), Quantity: 1}, pkgerrors.CodeStateConflict},
		{types.CheckoutLine{ProductID: active.ID.String(), ColorID: "gold", Quantity: 1}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		_, err := Price([]types.CheckoutLine{tc.line}, catalog, decimal.Zero, decimal.Zero)
		assert.True(t, pkgerrors.IsCode(err, tc.code), "line %+v: got %v", tc.line, err)
	}

	_, err := Price(nil, catalog, decimal.Zero, decimal.Zero)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCheckClientTotal(t *testing.T) {
	tolerance := decimal.RequireFromString("0.50")
	server := decimal.NewFromInt(100)

	require.NoError(t, CheckClientTotal(nil, server, tolerance))
	close := decimal.RequireFromString("100.40")
	require.NoError(t, CheckClientTotal(&close, server, tolerance))

	far := decimal.RequireFromString("90")
	err := CheckClientTotal(&far, server, tolerance)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, "90.00", details["clientTotal"])
	assert.Equal(t, "100.00", details["serverTotal"])
}

func TestNewOrderIDFormat(t *testing.T) {
	id := NewOrderID(fixedNow)
	assert.Regexp(t, `^KS-20250504-[0-9a-f]{8}$`, id)
}
