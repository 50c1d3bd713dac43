package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (user email) is taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrVersionConflict is returned by a conditional cart write when the cart
	// changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// ProductFilter narrows product listings. Zero value lists everything.
type ProductFilter struct {
	NameSubstring  string
	Category       string
	SubCategory    string
	BestSellerOnly bool
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
}

// OrderFilter narrows order listings; empty UserID lists all owners.
type OrderFilter struct {
	UserID string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CartRepository persists the cart embedded in the user record. Every
// successful mutation bumps the cart version.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// IncrementCartItem adds delta atomically per field; concurrent
	// increments are never lost.
	IncrementCartItem(ctx context.Context, userID, productID, size string, delta int) error
	// SetCartItem stores quantity; 0 removes the entry and an emptied item.
	SetCartItem(ctx context.Context, userID, productID, size string, quantity int) error
	// ClearCartIfVersion empties the cart only if its version still equals
	// version, otherwise returns ErrVersionConflict.
	ClearCartIfVersion(ctx context.Context, userID string, version int64) error
	// MergeCart adds lines back into the cart.
	MergeCart(ctx context.Context, userID string, lines []domain.CartLine) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

// TxManager runs fn so that its writes are applied together. The memory
// implementation holds the store write lock; the mongo one uses a session
// transaction when enabled.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (f ProductFilter) match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.SubCategory != "" && !strings.EqualFold(p.SubCategory, f.SubCategory) {
		return false
	}
	if f.BestSellerOnly && !p.BestSeller {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}
