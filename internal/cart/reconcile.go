package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Item is a cart line as exchanged with the storefront. Display fields are
// optional and only echoed back.
type Item struct {
	ID            string               `json:"id,omitempty"`
	ProductID     string               `json:"productId" validate:"required"`
	ColorID       string               `json:"colorId,omitempty"`
	Size          string               `json:"size,omitempty"`
	Quantity      int                  `json:"quantity" validate:"gt=0"`
	Customization *types.Customization `json:"customization,omitempty"`
	Name          string               `json:"name,omitempty"`
	Price         *decimal.Decimal     `json:"price,omitempty"`
	Image         string               `json:"image,omitempty"`
}

type lineKey struct {
	productID string
	colorID   string
}

func (i Item) key() lineKey {
	return lineKey{productID: i.ProductID, colorID: i.ColorID}
}

// Result is the outcome of reconciling a server cart with a device cart.
type Result struct {
	Merged    []Item
	ToPersist []Item
}

// Reconcile merges local (device) items into remote (server) items. Local
// lines whose (product, colour) already exists remotely are dropped; the rest
// are appended and reported in ToPersist. The combined list is then folded by
// (product, colour): the first line seen keeps its fields and absorbs the
// quantity of later duplicates.
func Reconcile(remote, local []Item) Result {
	remoteKeys := make(map[lineKey]struct{}, len(remote))
	for _, item := range remote {
		remoteKeys[item.key()] = struct{}{}
	}

	combined := make([]Item, 0, len(remote)+len(local))
	combined = append(combined, remote...)
	var toPersist []Item
	for _, item := range local {
		if _, ok := remoteKeys[item.key()]; ok {
			continue
		}
		combined = append(combined, item)
		toPersist = append(toPersist, item)
	}

	merged := make([]Item, 0, len(combined))
	index := make(map[lineKey]int, len(combined))
	for _, item := range combined {
		if i, ok := index[item.key()]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.key()] = len(merged)
		merged = append(merged, item)
	}

	return Result{Merged: merged, ToPersist: toPersist}
}
