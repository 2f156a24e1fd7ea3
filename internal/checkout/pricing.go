package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Quote is the server-side price of a checkout.
type Quote struct {
	Items        []types.OrderItem
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	ItemCount    int
}

// ProductIDs parses the product ids of the requested lines.
func ProductIDs(lines []types.CheckoutLine) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, line := range lines {
		id, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].productId is not a valid id", i)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Price snapshots every line from the catalog and adds delivery and tax.
// Prices submitted by the client are never trusted.
func Price(lines []types.CheckoutLine, catalog map[uuid.UUID]models.Product, deliveryFee, taxRate decimal.Decimal) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	quote := Quote{Items: make([]types.OrderItem, 0, len(lines)), Subtotal: decimal.Zero}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].quantity must be positive", i)
		}
		id, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			return Quote{}, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].productId is not a valid id", i)
		}
		product, ok := catalog[id]
		if !ok {
			return Quote{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
		}
		if !product.IsActive {
			return Quote{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is no longer available", product.Name)
		}

		item := types.OrderItem{
			ProductID: product.ID.String(),
			Name:      product.Name,
			TeamID:    product.TeamID,
			Image:     product.PrimaryImage(),
			Price:     product.Price,
			Quantity:  line.Quantity,
			Size:      strings.TrimSpace(line.Size),
			LineTotal: product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if colorID := strings.TrimSpace(line.ColorID); colorID != "" {
			color, ok := product.Color(colorID)
			if !ok {
				return Quote{}, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].colorId %q is not offered", i, colorID)
			}
			item.ColorID = color.ID
			item.ColorName = color.Name
		}
		if !line.Customization.IsZero() {
			c := *line.Customization
			item.Customization = &c
		}

		quote.Items = append(quote.Items, item)
		quote.Subtotal = quote.Subtotal.Add(item.LineTotal)
		quote.ItemCount += line.Quantity
	}

	quote.Subtotal = quote.Subtotal.Round(2)
	quote.ShippingCost = deliveryFee.Round(2)
	quote.Tax = quote.Subtotal.Mul(taxRate).Round(2)
	quote.Total = quote.Subtotal.Add(quote.ShippingCost).Add(quote.Tax)
	return quote, nil
}

// CheckClientTotal rejects a client total that drifts from the server total by
// more than tolerance. A nil client total is accepted.
func CheckClientTotal(client *decimal.Decimal, server, tolerance decimal.Decimal) error {
	if client == nil {
		return nil
	}
	if client.Sub(server).Abs().GreaterThan(tolerance) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total does not match current prices").
			WithDetails(map[string]any{
				"clientTotal": client.StringFixed(2),
				"serverTotal": server.StringFixed(2),
			})
	}
	return nil
}
