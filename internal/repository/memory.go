package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

type userRecord struct {
	user domain.User
	cart *domain.Cart
}

// MemoryStore is a process-local store for products, users, carts and orders.
// All wrappers share its lock so a MemoryTx covers every collection.
type MemoryStore struct {
	mu           sync.RWMutex
	productsByID map[string]domain.Product
	usersByID    map[string]*userRecord
	userByEmail  map[string]string
	ordersByID   map[string]domain.Order
	orderIDs     []string
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		productsByID: make(map[string]domain.Product),
		usersByID:    make(map[string]*userRecord),
		userByEmail:  make(map[string]string),
		ordersByID:   make(map[string]domain.Order),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var _ ProductRepository = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneProduct(p)
	return &cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.productsByID {
		if !f.match(p) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneProduct(p domain.Product) domain.Product {
	p.Sizes = append([]string(nil), p.Sizes...)
	p.Images = append([]domain.ProductImage(nil), p.Images...)
	return p
}

// MemoryUsers implements UserRepository and CartRepository on a MemoryStore.
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var (
	_ UserRepository = (*MemoryUsers)(nil)
	_ CartRepository = (*MemoryUsers)(nil)
)

func (mu *MemoryUsers) CreateUser(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	email := strings.ToLower(u.Email)
	if _, taken := mu.store.userByEmail[email]; taken {
		return ErrDuplicate
	}
	u.ID = uuid.NewString()
	u.CreatedAt = mu.store.now()
	mu.store.usersByID[u.ID] = &userRecord{user: *u, cart: domain.NewCart(0)}
	mu.store.userByEmail[email] = u.ID
	return nil
}

func (mu *MemoryUsers) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	rec, ok := mu.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := rec.user
	return &cp, nil
}

func (mu *MemoryUsers) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	id, ok := mu.store.userByEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := mu.store.usersByID[id].user
	return &cp, nil
}

func (mu *MemoryUsers) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	rec, ok := mu.store.usersByID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.cart.Clone(), nil
}

func (mu *MemoryUsers) IncrementCartItem(ctx context.Context, userID, productID, size string, delta int) error {
	return mu.mutateCart(ctx, userID, func(c *domain.Cart) error { return c.Add(productID, size, delta) })
}

func (mu *MemoryUsers) SetCartItem(ctx context.Context, userID, productID, size string, quantity int) error {
	return mu.mutateCart(ctx, userID, func(c *domain.Cart) error { return c.Set(productID, size, quantity) })
}

func (mu *MemoryUsers) MergeCart(ctx context.Context, userID string, lines []domain.CartLine) error {
	return mu.mutateCart(ctx, userID, func(c *domain.Cart) error {
		for _, l := range lines {
			if err := c.Add(l.ProductID, l.Size, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (mu *MemoryUsers) ClearCartIfVersion(ctx context.Context, userID string, version int64) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	rec, ok := mu.store.usersByID[userID]
	if !ok {
		return ErrNotFound
	}
	if rec.cart.Version != version {
		return ErrVersionConflict
	}
	rec.cart = domain.NewCart(version + 1)
	return nil
}

// mutateCart applies fn to a copy and stores it only if fn succeeds.
func (mu *MemoryUsers) mutateCart(ctx context.Context, userID string, fn func(c *domain.Cart) error) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	rec, ok := mu.store.usersByID[userID]
	if !ok {
		return ErrNotFound
	}
	next := rec.cart.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Version = rec.cart.Version + 1
	rec.cart = next
	return nil
}

// MemoryOrders implements OrderRepository on a MemoryStore.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = uuid.NewString()
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = cloneOrder(*o)
	mo.store.orderIDs = append(mo.store.orderIDs, o.ID)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = mo.store.now()
	mo.store.ordersByID[id] = o
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for i := len(mo.store.orderIDs) - 1; i >= 0; i-- {
		o := mo.store.ordersByID[mo.store.orderIDs[i]]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderLine(nil), o.Items...)
	return o
}

// MemoryTx uses the store write lock as the transaction boundary.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// repositories skip their own locks while the context is marked
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
