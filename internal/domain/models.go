// Package domain defines the persistence models for the storefront catalog,
// orders and promo rules. These types are mapped with GORM and shared by the
// repository, service and bot layers. Monetary amounts are whole so'm stored
// as int64.
package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category groups products in the catalog.
type Category struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"       gorm:"type:varchar(128);not null"`
	Slug      string    `json:"slug"       gorm:"type:varchar(128);not null;uniqueIndex"`
	Image     string    `json:"image"      gorm:"type:text"`
	Position  int       `json:"position"   gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Product is a sellable catalog item.
//
// Fields:
//   - ID: numeric primary key; carried as productId in carts and orders.
//   - CategoryID: owning category (indexed).
//   - Price: current unit price in so'm (>= 0).
//   - OldPrice: optional strike-through price.
//   - Active: inactive products are hidden from listings.
type Product struct {
	ID          int64          `json:"id"          gorm:"primaryKey;autoIncrement"`
	CategoryID  int64          `json:"category_id" gorm:"not null;index:idx_products_category"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       int64          `json:"price"       gorm:"not null;check:price >= 0"`
	OldPrice    *int64         `json:"old_price,omitempty"`
	Image       string         `json:"image"       gorm:"type:text"`
	Active      bool           `json:"active"      gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentPaynet PaymentMethod = "paynet"
	PaymentCard   PaymentMethod = "card"
	PaymentCash   PaymentMethod = "cash"
)

// ParsePaymentMethod normalizes s and reports whether it names a known method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentPaynet, PaymentCard, PaymentCash:
		return m, true
	}
	return "", false
}

// Order statuses. Orders are created as StatusNew; later states are driven by
// the back office.
const (
	StatusNew       = "new"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order is a submitted checkout. ID is the client-generated orderId, which
// makes resubmission of the same checkout collapse onto one row.
type Order struct {
	ID             string        `json:"id"              gorm:"type:varchar(64);primaryKey"`
	FirstName      string        `json:"first_name"      gorm:"type:varchar(128);not null"`
	LastName       string        `json:"last_name"       gorm:"type:varchar(128);not null"`
	Phone          string        `json:"phone"           gorm:"type:varchar(32);not null;index:idx_orders_phone_created,priority:1"`
	Address        string        `json:"address"         gorm:"type:text;not null"`
	City           string        `json:"city"            gorm:"type:varchar(128);not null"`
	PaymentMethod  PaymentMethod `json:"payment_method"  gorm:"type:varchar(16);not null"`
	Subtotal       int64         `json:"subtotal"        gorm:"not null"`
	DiscountAmount int64         `json:"discount_amount" gorm:"not null;default:0"`
	Total          int64         `json:"total"           gorm:"not null"`
	PromoCode      *string       `json:"promo_code,omitempty" gorm:"type:varchar(64)"`
	Status         string        `json:"status"          gorm:"type:varchar(16);not null;default:'new'"`
	Source         string        `json:"source"          gorm:"type:varchar(16);not null;default:'web'"`
	CreatedAt      time.Time     `json:"created_at"      gorm:"index:idx_orders_phone_created,priority:2"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// CustomerName joins first and last name for display.
func (o Order) CustomerName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// OrderItem is a snapshot of one cart line at submission time.
type OrderItem struct {
	ID        int64  `json:"-"          gorm:"primaryKey;autoIncrement"`
	OrderID   string `json:"-"          gorm:"type:varchar(64);not null;index"`
	ProductID int64  `json:"productId"  gorm:"not null"`
	Name      string `json:"name"       gorm:"type:varchar(255);not null"`
	Price     int64  `json:"price"      gorm:"not null"`
	Quantity  int    `json:"quantity"   gorm:"not null;check:quantity >= 1"`
	Image     string `json:"image"      gorm:"type:text"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() int64 { return i.Price * int64(i.Quantity) }
