package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:customer" json:"role"`
	Active       bool   `gorm:"default:true"             json:"active"`
}

type UserProfile struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	UserID    uint    `gorm:"index;not null" json:"user_id"`
	Address   string  `json:"address"`
	Country   string  `json:"country"`
	State     string  `json:"state"`
	City      string  `json:"city"`
	PinCode   string  `json:"pin_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Vendor struct {
	ID       uint   `gorm:"primaryKey"      json:"id"`
	UserID   uint   `gorm:"index;not null"  json:"user_id"`
	Name     string `gorm:"not null"        json:"name"`
	Slug     string `gorm:"unique;not null" json:"slug"`
	Approved bool   `gorm:"default:false"   json:"approved"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey"      json:"id"`
	VendorID    uint   `gorm:"index;not null"  json:"vendor_id"`
	Name        string `gorm:"not null"        json:"name"`
	Slug        string `gorm:"unique;not null" json:"slug"`
	Description string `json:"description"`
}

type FoodItem struct {
	ID          uint    `gorm:"primaryKey"      json:"id"`
	VendorID    uint    `gorm:"index;not null"  json:"vendor_id"`
	CategoryID  uint    `gorm:"index;not null"  json:"category_id"`
	Title       string  `gorm:"not null"        json:"title"`
	Slug        string  `gorm:"unique;not null" json:"slug"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null"        json:"price"`
	Available   bool    `gorm:"default:true"    json:"available"`
}

// OpeningHour is one weekly window for a vendor. Day is ISO weekday 1..7.
type OpeningHour struct {
	ID       uint   `gorm:"primaryKey"                               json:"id"`
	VendorID uint   `gorm:"uniqueIndex:idx_vendor_window;not null"   json:"vendor_id"`
	Day      int    `gorm:"uniqueIndex:idx_vendor_window;not null"   json:"day"`
	FromHour string `gorm:"uniqueIndex:idx_vendor_window"            json:"from_hour"`
	ToHour   string `gorm:"uniqueIndex:idx_vendor_window"            json:"to_hour"`
	Closed   bool   `gorm:"default:false"                            json:"closed"`
}

// CartItem holds one line per (user, food item); the unique index backs
// the increment-or-create flow in the cart handlers.
type CartItem struct {
	ID         uint      `gorm:"primaryKey"                            json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_user_item;not null"    json:"user_id"`
	FoodItemID uint      `gorm:"uniqueIndex:idx_user_item;not null"    json:"food_item_id"`
	Quantity   uint      `gorm:"default:1;check:quantity>0"            json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

type TaxRule struct {
	ID         uint    `gorm:"primaryKey"    json:"id"`
	TaxType    string  `gorm:"not null"      json:"tax_type"`
	Percentage float64 `gorm:"not null"      json:"percentage"`
	Active     bool    `gorm:"default:true"  json:"active"`
}

// Order keeps denormalized totals so history survives later price and
// tax rule changes. TaxData and TotalData are JSON blobs, see checkout.
type Order struct {
	ID            uint      `gorm:"primaryKey"      json:"id"`
	OrderNumber   string    `gorm:"unique"          json:"order_number"`
	UserID        uint      `gorm:"index;not null"  json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	Country       string    `json:"country"`
	State         string    `json:"state"`
	City          string    `json:"city"`
	PinCode       string    `json:"pin_code"`
	Subtotal      float64   `json:"subtotal"`
	TotalTax      float64   `json:"total_tax"`
	GrandTotal    float64   `json:"grand_total"`
	TaxData       string    `json:"tax_data"`
	TotalData     string    `json:"total_data"`
	PaymentID     *uint     `json:"payment_id"`
	PaymentMethod string    `json:"payment_method"`
	IsOrdered     bool      `gorm:"default:false"   json:"is_ordered"`
	Status        string    `gorm:"default:new"     json:"status"`
	Vendors       []Vendor  `gorm:"many2many:order_vendors" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

type Payment struct {
	ID            uint      `gorm:"primaryKey"     json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	TransactionID string    `gorm:"not null"       json:"transaction_id"`
	PaymentMethod string    `json:"payment_method"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderedItem is a price-frozen snapshot of one cart line, created when
// the payment is confirmed.
type OrderedItem struct {
	ID         uint      `gorm:"primaryKey"     json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	PaymentID  uint      `gorm:"not null"       json:"payment_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	FoodItemID uint      `gorm:"not null"       json:"food_item_id"`
	VendorID   uint      `gorm:"index;not null" json:"vendor_id"`
	Quantity   uint      `gorm:"not null"       json:"quantity"`
	Price      float64   `gorm:"not null"       json:"price"`
	Amount     float64   `gorm:"not null"       json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}
