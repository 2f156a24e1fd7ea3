package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

const maxLineQuantity = 99

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the signed-in cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Merge(ctx context.Context, userID uuid.UUID, local []Item) ([]Item, error)
}

// AddItemInput is the add-to-cart payload.
type AddItemInput struct {
	ProductID     uuid.UUID            `json:"productId" validate:"required"`
	ColorID       string               `json:"colorId,omitempty"`
	Size          string               `json:"size,omitempty"`
	Quantity      int                  `json:"quantity" validate:"required,gt=0"`
	Customization *types.Customization `json:"customization,omitempty"`
}

// CartView is the priced cart returned to clients.
type CartView struct {
	Items     []Item          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ServiceParams bundles cart dependencies.
type ServiceParams struct {
	Repo     *Repository
	Products productLoader
	Tx       txRunner
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	products productLoader
	tx       txRunner
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, products: params.Products, tx: params.Tx, logg: params.Logger}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items, err := s.decorate(ctx, rows)
	if err != nil {
		return nil, err
	}
	return buildView(items), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error) {
	if input.Quantity <= 0 || input.Quantity > maxLineQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", maxLineQuantity)
	}
	found, err := s.products.FindByIDs(ctx, []uuid.UUID{input.ProductID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	product, ok := found[input.ProductID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := validateLine(product, input.ColorID, input.Size); err != nil {
		return nil, err
	}

	row := &models.CartItem{
		UserID:        userID,
		ProductID:     input.ProductID,
		ColorID:       strings.TrimSpace(input.ColorID),
		Size:          strings.TrimSpace(input.Size),
		Quantity:      input.Quantity,
		Customization: normalizeCustomization(input.Customization),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity <= 0 || quantity > maxLineQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", maxLineQuantity)
	}
	found, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	found, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// Merge folds a device cart into the stored cart and returns the merged list
// for the client to write back. Lines for unknown or invalid products are
// kept in the returned list but not persisted.
func (s *service) Merge(ctx context.Context, userID uuid.UUID, local []Item) ([]Item, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	remote, err := s.decorate(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := Reconcile(remote, sanitizeLocal(local))
	if len(result.ToPersist) == 0 {
		return result.Merged, nil
	}

	ids := make([]uuid.UUID, 0, len(result.ToPersist))
	for _, item := range result.ToPersist {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, item := range result.ToPersist {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				s.skip(ctx, item, "invalid product id")
				continue
			}
			product, ok := catalog[productID]
			if !ok {
				s.skip(ctx, item, "unknown product")
				continue
			}
			if err := validateLine(product, item.ColorID, item.Size); err != nil {
				s.skip(ctx, item, err.Error())
				continue
			}
			row := &models.CartItem{
				UserID:        userID,
				ProductID:     productID,
				ColorID:       item.ColorID,
				Size:          item.Size,
				Quantity:      item.Quantity,
				Customization: normalizeCustomization(item.Customization),
			}
			if err := repo.Upsert(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist merged cart")
	}
	return result.Merged, nil
}

func (s *service) decorate(ctx context.Context, rows []models.CartItem) ([]Item, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := Item{
			ID:            row.ID.String(),
			ProductID:     row.ProductID.String(),
			ColorID:       row.ColorID,
			Size:          row.Size,
			Quantity:      row.Quantity,
			Customization: row.Customization,
		}
		if product, ok := catalog[row.ProductID]; ok {
			price := product.Price
			item.Name = product.Name
			item.Price = &price
			item.Image = product.PrimaryImage()
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) skip(ctx context.Context, item Item, reason string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"product_id": item.ProductID,
		"reason":     reason,
	}), "skipping cart line during merge")
}

func buildView(items []Item) *CartView {
	view := &CartView{Items: items, Subtotal: decimal.Zero}
	for _, item := range items {
		view.ItemCount += item.Quantity
		if item.Price != nil {
			view.Subtotal = view.Subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return view
}

func sanitizeLocal(local []Item) []Item {
	out := make([]Item, 0, len(local))
	for _, item := range local {
		item.ProductID = strings.TrimSpace(item.ProductID)
		item.ColorID = strings.TrimSpace(item.ColorID)
		item.Size = strings.TrimSpace(item.Size)
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if item.Quantity > maxLineQuantity {
			item.Quantity = maxLineQuantity
		}
		item.ID = ""
		out = append(out, item)
	}
	return out
}

func validateLine(product models.Product, colorID, size string) error {
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is no longer available")
	}
	colorID = strings.TrimSpace(colorID)
	if colorID != "" {
		if _, ok := product.Color(colorID); !ok {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown color %q", colorID)
		}
	}
	size = strings.TrimSpace(size)
	if size != "" && len(product.Sizes) > 0 && !containsFold(product.Sizes, size) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown size %q", size)
	}
	return nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func normalizeCustomization(c *types.Customization) *types.Customization {
	if c.IsZero() {
		return nil
	}
	return &types.Customization{Name: strings.TrimSpace(c.Name), Number: strings.TrimSpace(c.Number)}
}

