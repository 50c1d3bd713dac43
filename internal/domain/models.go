package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a shopper account. The cart lives on the user record.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductImage is a hosted image; Handle is what the image host needs to delete it.
type ProductImage struct {
	URL    string `json:"url"`
	Handle string `json:"public_id"`
}

// Product is a catalog entry
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Sizes       []string        `json:"sizes"`
	Images      []ProductImage  `json:"image"`
	BestSeller  bool            `json:"bestSeller"`
	CreatedAt   time.Time       `json:"date"`
}

// CoverURL returns the first image url, or "" for a product without images.
func (p Product) CoverURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// OrderStatus is the admin-controlled order state
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PaymentMethod tags how an order is paid.
type PaymentMethod string

const PaymentCOD PaymentMethod = "COD"

// Address is the shipping address captured with an order.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// OrderLine is a product snapshot taken at checkout. It never follows later
// edits to the product.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price * quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is created once at checkout; only Status changes afterwards.
type Order struct {
	ID            string          `json:"_id"`
	UserID        string          `json:"userId"`
	Items         []OrderLine     `json:"items"`
	Amount        decimal.Decimal `json:"amount"`
	Address       Address         `json:"address"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Paid          bool            `json:"payment"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"date"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
