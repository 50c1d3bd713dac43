package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxQuantity bounds a single cart entry. It fits a 32-bit document field.
const MaxQuantity = math.MaxInt32

// ErrQuantityLimit is returned when an entry would exceed MaxQuantity.
var ErrQuantityLimit = &Error{Kind: KindValidation, Message: fmt.Sprintf("quantity cannot exceed %d", MaxQuantity)}

// CartLine is one (product, size) selection in a cart.
type CartLine struct {
	ProductID string `json:"itemId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Cart is a user's in-progress selection keyed by (product, size).
// Entries with quantity 0 are never kept. Version changes on every stored
// mutation and is used to detect concurrent edits during checkout.
type Cart struct {
	Version int64
	items   map[string]map[string]int
}

// NewCart builds a cart from lines, summing duplicates and dropping
// non-positive quantities. Sums past MaxQuantity are capped.
func NewCart(version int64, lines ...CartLine) *Cart {
	c := &Cart{Version: version}
	for _, l := range lines {
		if err := c.Add(l.ProductID, l.Size, l.Quantity); err != nil {
			c.Set(l.ProductID, l.Size, MaxQuantity)
		}
	}
	return c
}

// CartFromMap builds a cart from the nested item -> size -> quantity layout
// used by the stores.
func CartFromMap(version int64, m map[string]map[string]int) *Cart {
	c := &Cart{Version: version}
	for item, sizes := range m {
		for size, qty := range sizes {
			c.Set(item, size, min(qty, MaxQuantity))
		}
	}
	return c
}

// Add adds delta units of (productID, size). The entry is removed if the
// result is not positive. A result above MaxQuantity is refused and the cart
// is left unchanged.
func (c *Cart) Add(productID, size string, delta int) error {
	q := c.Quantity(productID, size)
	if delta > MaxQuantity-q {
		return ErrQuantityLimit
	}
	return c.Set(productID, size, q+delta)
}

// Set stores quantity for (productID, size); 0 or less removes the entry and
// the product too when it was its last size.
func (c *Cart) Set(productID, size string, quantity int) error {
	if quantity > MaxQuantity {
		return ErrQuantityLimit
	}
	if quantity <= 0 {
		sizes, ok := c.items[productID]
		if !ok {
			return nil
		}
		delete(sizes, size)
		if len(sizes) == 0 {
			delete(c.items, productID)
		}
		return nil
	}
	if c.items == nil {
		c.items = make(map[string]map[string]int)
	}
	sizes, ok := c.items[productID]
	if !ok {
		sizes = make(map[string]int)
		c.items[productID] = sizes
	}
	sizes[size] = quantity
	return nil
}

func (c *Cart) Quantity(productID, size string) int {
	if c == nil {
		return 0
	}
	return c.items[productID][size]
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.items) == 0
}

// Lines returns the cart content ordered by product then size.
func (c *Cart) Lines() []CartLine {
	if c == nil {
		return nil
	}
	out := make([]CartLine, 0, len(c.items))
	for item, sizes := range c.items {
		for size, qty := range sizes {
			out = append(out, CartLine{ProductID: item, Size: size, Quantity: qty})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Size < out[j].Size
	})
	return out
}

// Map returns a copy of the nested item -> size -> quantity layout. It is
// what the stores persist and what clients receive as cartData.
func (c *Cart) Map() map[string]map[string]int {
	out := make(map[string]map[string]int)
	if c == nil {
		return out
	}
	for item, sizes := range c.items {
		cp := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			cp[size] = qty
		}
		out[item] = cp
	}
	return out
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	return CartFromMap(c.Version, c.items)
}

// ValidateCartKey rejects item ids and size labels that are empty or could
// not be stored as a document field name.
func ValidateCartKey(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Validationf("%s is required", field)
	}
	if strings.Contains(v, ".") || strings.HasPrefix(v, "$") {
		return Validationf("%s %q contains reserved characters", field, v)
	}
	return nil
}
