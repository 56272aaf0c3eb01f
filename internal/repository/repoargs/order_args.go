package repoargs

import (
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	UserID    int64
	AddressID int64
	OrderCode string
}

type OrderItemCreate struct {
	OrderID        int64
	VariantID      int64
	Quantity       int32
	PriceAtOrder   decimal.Decimal
	ReturnDeadline time.Time
}

type OrderItemBatchQueryRow func(i int, item *domain.OrderItem, err error)

// OrdersFilter параметры выборки заказов юзера. Status == nil означает выборку без фильтра по статусу.
type OrdersFilter struct {
	Limit  uint
	Offset uint
	Status *domain.DeliveryStatusType
}

// OrderItemWithOwner позиция заказа вместе с id владельца родительского заказа,
// чтобы проверка принадлежности не требовала отдельного запроса.
type OrderItemWithOwner struct {
	Item        domain.OrderItem
	OrderUserID int64
}
