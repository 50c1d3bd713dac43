package service

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService mutates the owner's cart. Every change is written through to
// the store immediately.
type CartService struct {
	carts repository.CartRepository
	log   *zap.Logger
}

func NewCartService(carts repository.CartRepository, log *zap.Logger) *CartService {
	return &CartService{carts: carts, log: log}
}

// AddItem adds one unit of (itemID, size). Retrying the call adds another unit.
// An entry already at domain.MaxQuantity is refused and kept as is.
func (s *CartService) AddItem(ctx context.Context, c auth.Capability, itemID, size string) error {
	userID, err := c.RequireOwner()
	if err != nil {
		return err
	}
	if err := validateCartKeys(itemID, size); err != nil {
		return err
	}
	if err := s.carts.IncrementCartItem(ctx, userID, itemID, size, 1); err != nil {
		return storeError(err, "user not found", "could not update cart")
	}
	s.log.Debug("cart item added", zap.String("user_id", userID), zap.String("item_id", itemID), zap.String("size", size))
	return nil
}

// SetQuantity stores quantity for (itemID, size); 0 removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, c auth.Capability, itemID, size string, quantity int) error {
	userID, err := c.RequireOwner()
	if err != nil {
		return err
	}
	if err := validateCartKeys(itemID, size); err != nil {
		return err
	}
	if quantity < 0 {
		return domain.Validation("quantity cannot be negative")
	}
	if quantity > domain.MaxQuantity {
		return domain.ErrQuantityLimit
	}
	if err := s.carts.SetCartItem(ctx, userID, itemID, size, quantity); err != nil {
		return storeError(err, "user not found", "could not update cart")
	}
	s.log.Debug("cart quantity set", zap.String("user_id", userID), zap.String("item_id", itemID),
		zap.String("size", size), zap.Int("quantity", quantity))
	return nil
}

// GetCart returns the owner's cart, empty if nothing was ever added.
func (s *CartService) GetCart(ctx context.Context, c auth.Capability) (*domain.Cart, error) {
	userID, err := c.RequireOwner()
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user not found", "could not load cart")
	}
	return cart, nil
}

func validateCartKeys(itemID, size string) error {
	if err := domain.ValidateCartKey("itemId", itemID); err != nil {
		return err
	}
	return domain.ValidateCartKey("size", size)
}
