package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestPlaceOrder_TotalsAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p1 := f.product(t, "Tee", 20)
	p2 := f.product(t, "Shirt", 15)

	require.NoError(t, f.carts.SetQuantity(ctx, u, p1.ID, "M", 2))
	require.NoError(t, f.carts.SetQuantity(ctx, u, p2.ID, "L", 1))

	o, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(65)), o.Amount.String())
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, domain.PaymentCOD, o.PaymentMethod)
	assert.False(t, o.Paid)
	require.Len(t, o.Items, 2)

	sum := decimal.Zero
	for _, l := range o.Items {
		assert.Positive(t, l.Quantity)
		sum = sum.Add(l.Subtotal())
	}
	assert.True(t, o.Amount.Equal(sum.Add(f.checkout.DeliveryFee())))

	cart, err := f.carts.GetCart(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, cart.Map())
}

func TestPlaceOrder_SnapshotsProduct(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))

	o, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	require.NoError(t, err)

	require.NoError(t, f.products.Remove(ctx, admin, p.ID))
	orders, err := f.checkout.ListOrders(ctx, u)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
	assert.Equal(t, "Tee", orders[0].Items[0].Name)
	assert.True(t, orders[0].Items[0].Price.Equal(decimal.NewFromInt(20)))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")

	_, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	all, _ := f.checkout.ListOrders(ctx, admin)
	assert.Empty(t, all)
}

func TestPlaceOrder_MissingProductAborts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))
	require.NoError(t, f.carts.AddItem(ctx, u, "gone", "M"))

	_, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	cart, _ := f.carts.GetCart(ctx, u)
	assert.Equal(t, 1, cart.Quantity(p.ID, "M"), "cart must be untouched")
	all, _ := f.checkout.ListOrders(ctx, admin)
	assert.Empty(t, all)
}

func TestPlaceOrder_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))

	addr := shippingAddress()
	addr.City = " "
	_, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: addr})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress(), PaymentMethod: "bkash"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.checkout.PlaceOrder(ctx, admin, PlaceOrderRequest{Address: shippingAddress()})
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

// racingCarts adds a unit to the cart right after checkout reads it, the
// way a concurrent addItem request would.
type racingCarts struct {
	repository.CartRepository
	races     int
	productID string
}

func (r *racingCarts) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := r.CartRepository.GetCart(ctx, userID)
	if err == nil && r.races > 0 {
		r.races--
		if err := r.CartRepository.IncrementCartItem(ctx, userID, r.productID, "M", 1); err != nil {
			return nil, err
		}
	}
	return c, err
}

func TestPlaceOrder_ConcurrentAddIsNotLost(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.SetQuantity(ctx, u, p.ID, "M", 2))

	carts := &racingCarts{CartRepository: f.users, races: 1, productID: p.ID}
	svc := NewOrderService(carts, f.store, f.orders, repository.NewMemoryTx(f.store), decimal.NewFromInt(10), zap.NewNop())

	o, err := svc.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity, "the unit added mid-checkout must be ordered")
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(70)))

	cart, _ := f.carts.GetCart(ctx, u)
	assert.Empty(t, cart.Map())
}

func TestPlaceOrder_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))

	carts := &racingCarts{CartRepository: f.users, races: maxCheckoutAttempts, productID: p.ID}
	svc := NewOrderService(carts, f.store, f.orders, repository.NewMemoryTx(f.store), decimal.NewFromInt(10), zap.NewNop())

	_, err := svc.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	all, _ := f.checkout.ListOrders(ctx, admin)
	assert.Empty(t, all)
	cart, _ := f.carts.GetCart(ctx, u)
	assert.Equal(t, 1+maxCheckoutAttempts, cart.Quantity(p.ID, "M"))
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) Create(context.Context, *domain.Order) error {
	return errors.New("write failed")
}

func TestPlaceOrder_RestoresCartWhenOrderWriteFails(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.SetQuantity(ctx, u, p.ID, "M", 2))

	svc := NewOrderService(f.users, f.store, failingOrders{f.orders}, repository.NewMemoryTx(f.store), decimal.NewFromInt(10), zap.NewNop())
	_, err := svc.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	assert.Equal(t, domain.KindDependency, domain.KindOf(err))

	cart, _ := f.carts.GetCart(ctx, u)
	assert.Equal(t, 2, cart.Quantity(p.ID, "M"))
}

func TestListOrders_Scopes(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ann := f.shopper(t, "ann@example.com")
	bob := f.shopper(t, "bob@example.com")
	p := f.product(t, "Tee", 20)

	for _, u := range []auth.Capability{ann, bob, ann} {
		require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))
		_, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
		require.NoError(t, err)
	}

	all, err := f.checkout.ListOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.checkout.ListOrders(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, ann.UserID, o.UserID)
	}

	_, err = f.checkout.ListOrders(ctx, auth.Capability{})
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.shopper(t, "ann@example.com")
	p := f.product(t, "Tee", 20)
	require.NoError(t, f.carts.AddItem(ctx, u, p.ID, "M"))
	o, err := f.checkout.PlaceOrder(ctx, u, PlaceOrderRequest{Address: shippingAddress()})
	require.NoError(t, err)

	updated, err := f.checkout.SetStatus(ctx, admin, o.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	for _, c := range []auth.Capability{admin, u} {
		list, err := f.checkout.ListOrders(ctx, c)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.OrderStatusShipped, list[0].Status)
	}

	_, err = f.checkout.SetStatus(ctx, admin, o.ID, "lost")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	stored, _ := f.orders.GetByID(ctx, o.ID)
	assert.Equal(t, domain.OrderStatusShipped, stored.Status)

	_, err = f.checkout.SetStatus(ctx, admin, "missing", "shipped")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.checkout.SetStatus(ctx, u, o.ID, "delivered")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	// no transition table: delivered may go back to pending
	_, err = f.checkout.SetStatus(ctx, admin, o.ID, "delivered")
	require.NoError(t, err)
	back, err := f.checkout.SetStatus(ctx, admin, o.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, back.Status)
}
