package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/media"
	"storefront/internal/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	users    *repository.MemoryUsers
	orders   *repository.MemoryOrders
	images   *media.Memory
	accounts *UserService
	carts    *CartService
	products *ProductService
	checkout *OrderService
}

var admin = auth.AdminCap()

func setup(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	orders := repository.NewMemoryOrders(store)
	images := media.NewMemory("/media/")
	tokens := auth.NewTokens("test-secret", time.Hour)
	return &fixture{
		store:    store,
		users:    users,
		orders:   orders,
		images:   images,
		accounts: NewUserService(users, tokens, AdminCredentials{Email: "admin@shop.test", Password: "admin-pass"}, log),
		carts:    NewCartService(users, log),
		products: NewProductService(store, images, log),
		checkout: NewOrderService(users, store, orders, repository.NewMemoryTx(store), decimal.NewFromInt(10), log),
	}
}

// shopper registers a user and returns its owner capability.
func (f *fixture) shopper(t *testing.T, email string) auth.Capability {
	t.Helper()
	u := domain.User{Name: "Shopper", Email: email, PasswordHash: "x"}
	if err := f.users.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return auth.OwnerCap(u.ID)
}

func (f *fixture) product(t *testing.T, name string, price int64, sizes ...string) *domain.Product {
	t.Helper()
	if len(sizes) == 0 {
		sizes = []string{"S", "M", "L"}
	}
	pr := decimal.NewFromInt(price)
	p, err := f.products.Add(context.Background(), admin, NewProduct{Name: name, Price: &pr, Category: "Men", Sizes: sizes}, nil)
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	return p
}

func shippingAddress() domain.Address {
	return domain.Address{
		FirstName: "Ann", LastName: "Lee", Email: "ann@example.com",
		Street: "1 Main St", City: "Dhaka", State: "Dhaka", Zipcode: "1207",
		Country: "Bangladesh", Phone: "0123456789",
	}
}
