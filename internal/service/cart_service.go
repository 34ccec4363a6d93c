package service

import (
	"context"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"
	"fulfillment/internal/util"

	"go.uber.org/zap"
)

// CartService manages per-customer cart snapshots
type CartService struct {
	carts   CartStore
	catalog ProductCatalog
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore, catalog ProductCatalog) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// CartView is a cart with its computed total
type CartView struct {
	Items      []models.CartLine `json:"items"`
	TotalCents int64             `json:"total_cents"`
}

// GetCart returns the cart of email
func (s *CartService) GetCart(ctx context.Context, email string) (*CartView, error) {
	lines, err := s.carts.GetCart(ctx, email)
	if err != nil {
		return nil, err
	}
	return &CartView{Items: lines, TotalCents: cartTotal(lines)}, nil
}

// AddItem snapshots the product's current price and title into the cart, replacing
// any existing line for the product.
func (s *CartService) AddItem(ctx context.Context, email string, productID int64, qty int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if qty < 1 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "qty must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	line := models.CartLine{
		ProductID:      product.ID,
		Qty:            qty,
		UnitPriceCents: product.PriceCents,
		Title:          product.Title,
	}
	if err := s.carts.PutLine(ctx, email, line); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart line added", zap.String("email", email), zap.Int64("product_id", productID), zap.Int("qty", qty))
	return s.GetCart(ctx, email)
}

// UpdateItem changes the quantity of a line; qty 0 removes it
func (s *CartService) UpdateItem(ctx context.Context, email string, productID int64, qty int) (*CartView, error) {
	if qty < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "qty must not be negative")
	}

	line, err := s.carts.GetLine(ctx, email, productID)
	if err != nil {
		return nil, err
	}

	if qty == 0 {
		err = s.carts.DeleteLine(ctx, email, productID)
	} else {
		line.Qty = qty
		err = s.carts.PutLine(ctx, email, *line)
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, email)
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, email string, productID int64) (*CartView, error) {
	if err := s.carts.DeleteLine(ctx, email, productID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, email)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, email string) error {
	return s.carts.ClearCart(ctx, email)
}

func cartTotal(lines []models.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += int64(l.Qty) * l.UnitPriceCents
	}
	return total
}
