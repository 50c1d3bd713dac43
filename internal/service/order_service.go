package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

const maxCheckoutAttempts = 3

// PlaceOrderRequest is what the shopper sends at checkout. The server cart is
// authoritative; ClientAmount is only compared for logging.
type PlaceOrderRequest struct {
	Address       domain.Address
	PaymentMethod domain.PaymentMethod
	ClientAmount  *decimal.Decimal
}

// OrderService turns carts into orders and lets the admin move order status.
type OrderService struct {
	carts       repository.CartRepository
	products    repository.ProductRepository
	orders      repository.OrderRepository
	tx          repository.TxManager
	deliveryFee decimal.Decimal
	log         *zap.Logger
}

func NewOrderService(carts repository.CartRepository, products repository.ProductRepository, orders repository.OrderRepository,
	tx repository.TxManager, deliveryFee decimal.Decimal, log *zap.Logger) *OrderService {
	return &OrderService{carts: carts, products: products, orders: orders, tx: tx, deliveryFee: deliveryFee, log: log}
}

func (s *OrderService) DeliveryFee() decimal.Decimal { return s.deliveryFee }

// PlaceOrder snapshots the owner's cart into a pending COD order and empties
// the cart. If the cart changes between reading and clearing, the attempt is
// discarded and the checkout starts over from a fresh read.
func (s *OrderService) PlaceOrder(ctx context.Context, c auth.Capability, req PlaceOrderRequest) (*domain.Order, error) {
	userID, err := c.RequireOwner()
	if err != nil {
		return nil, err
	}
	if err := validateAddress(req.Address); err != nil {
		return nil, err
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCOD
	}
	if method != domain.PaymentCOD {
		return nil, domain.Validationf("payment method %q is not supported", method)
	}

	for attempt := 1; attempt <= maxCheckoutAttempts; attempt++ {
		o, err := s.checkout(ctx, userID, req.Address, method)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Info("cart changed during checkout, retrying", zap.String("user_id", userID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		if req.ClientAmount != nil && !req.ClientAmount.Equal(o.Amount) {
			s.log.Warn("client amount differs from order amount",
				zap.String("order_id", o.ID),
				zap.String("client_amount", req.ClientAmount.String()),
				zap.String("amount", o.Amount.String()))
		}
		s.log.Info("order placed", zap.String("order_id", o.ID), zap.String("user_id", userID),
			zap.String("amount", o.Amount.String()), zap.Int("lines", len(o.Items)))
		return o, nil
	}
	return nil, domain.Conflict("your cart changed while placing the order, please try again")
}

func (s *OrderService) checkout(ctx context.Context, userID string, addr domain.Address, method domain.PaymentMethod) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user not found", "could not load cart")
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, domain.Validation("cart is empty")
	}

	order := domain.Order{
		UserID:        userID,
		Address:       addr,
		PaymentMethod: method,
		Paid:          false,
		Status:        domain.OrderStatusPending,
		Items:         make([]domain.OrderLine, 0, len(lines)),
	}
	products := make(map[string]*domain.Product)
	total := decimal.Zero
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			p, err = s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, domain.NotFound("a product in your cart is no longer available")
				}
				return nil, domain.Dependency("could not load product", err)
			}
			products[l.ProductID] = p
		}
		line := domain.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.CoverURL(),
			Size:      l.Size,
			Quantity:  l.Quantity,
		}
		order.Items = append(order.Items, line)
		total = total.Add(line.Subtotal())
	}
	order.Amount = total.Add(s.deliveryFee)

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.carts.ClearCartIfVersion(ctx, userID, cart.Version); err != nil {
			return err
		}
		if err := s.orders.Create(ctx, &order); err != nil {
			// without a real transaction the cleared cart has to be put back
			if merr := s.carts.MergeCart(ctx, userID, lines); merr != nil {
				s.log.Error("could not restore cart", zap.String("user_id", userID), zap.Error(merr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		return nil, storeError(err, "user not found", "could not place order")
	}
	return &order, nil
}

// ListOrders returns every order for the admin and the owner's own orders
// otherwise, newest first.
func (s *OrderService) ListOrders(ctx context.Context, c auth.Capability) ([]domain.Order, error) {
	var f repository.OrderFilter
	if !c.IsAdmin() {
		userID, err := c.RequireOwner()
		if err != nil {
			return nil, err
		}
		f.UserID = userID
	}
	list, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, domain.Dependency("could not list orders", err)
	}
	return list, nil
}

// SetStatus sets any valid status on an order. Transitions are not
// restricted; delivered -> pending is accepted.
func (s *OrderService) SetStatus(ctx context.Context, c auth.Capability, orderID, status string) (*domain.Order, error) {
	if err := c.RequireAdmin(); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, domain.Validation("orderId is required")
	}
	st := domain.OrderStatus(status)
	if !st.Valid() {
		return nil, domain.Validation("Invalid status")
	}
	o, err := s.orders.UpdateStatus(ctx, orderID, st)
	if err != nil {
		return nil, storeError(err, "Order not found", "could not update order")
	}
	s.log.Info("order status updated", zap.String("order_id", orderID), zap.String("status", status))
	return o, nil
}

func validateAddress(a domain.Address) error {
	required := []struct{ field, value string }{
		{"firstName", a.FirstName},
		{"street", a.Street},
		{"city", a.City},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.Validationf("address %s is required", r.field)
		}
	}
	return nil
}
