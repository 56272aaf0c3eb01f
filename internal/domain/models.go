package domain

import (
	"github.com/shopspring/decimal"

	"time"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string
	Password  string
	Balance   decimal.Decimal
	Guest     bool
}

type Address struct {
	ID     int64
	UserID int64
	Label  string
	Line1  string
	City   string
}

type Product struct {
	ID    int64
	Name  string
	Image string
}

type ProductVariant struct {
	ID        int64
	ProductID int64
	SKU       string
	Price     decimal.Decimal
	Stock     int32
}

type Cart struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    int64
}

type CartItem struct {
	ID        int64
	CartID    int64
	VariantID int64
	Quantity  int32
}

type Order struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         int64
	AddressID      int64
	OrderCode      string
	DeliveryStatus DeliveryStatusType
	Items          []OrderItem
}

type OrderItem struct {
	ID             int64
	OrderID        int64
	VariantID      int64
	Quantity       int32
	PriceAtOrder   decimal.Decimal
	DeliveryStatus DeliveryStatusType
	ReturnDeadline time.Time
}

type Return struct {
	ID          int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OrderItemID int64
	Reason      string
	Status      ReturnStatusType
}
