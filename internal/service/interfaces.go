package service

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, error)
	DebitBalanceClamped(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, error)
}

type AddressRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Address, error)
}

type VariantRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.ProductVariant, error)
	DecrementStock(ctx context.Context, variantID int64, qty int32) error
}

type CartRepository interface {
	CreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	ReassignOwner(ctx context.Context, cartID, userID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
	UpsertItem(ctx context.Context, args repoargs.UpsertCartItem) (*domain.CartItem, error)
	FindItem(ctx context.Context, cartID, variantID int64) (*domain.CartItem, error)
	GetItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
	GetItemDetails(ctx context.Context, cartID int64) ([]repoargs.CartItemDetail, error)
	DeleteItem(ctx context.Context, cartID, variantID int64) error
	DeleteAllItems(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	BatchCreateItems(ctx context.Context, items []repoargs.OrderItemCreate, fn repoargs.OrderItemBatchQueryRow)
	GetByUserID(ctx context.Context, userID int64, filter repoargs.OrdersFilter) ([]domain.Order, error)
	GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]domain.OrderItem, error)
	FindItemByID(ctx context.Context, itemID int64) (*repoargs.OrderItemWithOwner, error)
	UpdateItemDeliveryStatus(
		ctx context.Context,
		itemID int64,
		status domain.DeliveryStatusType,
	) (*domain.OrderItem, error)
	LockOrder(ctx context.Context, orderID int64) error
	CountItemsNotDelivered(ctx context.Context, orderID int64) (int64, error)
	UpdateOrderDeliveryStatus(ctx context.Context, orderID int64, status domain.DeliveryStatusType) error
}

type ReturnRepository interface {
	Create(ctx context.Context, orderItemID int64, reason string) (*domain.Return, error)
	FindByOrderItemID(ctx context.Context, orderItemID int64) (*domain.Return, error)
	FindByID(ctx context.Context, id int64) (*repoargs.ReturnWithOrderItem, error)
	Update(ctx context.Context, id int64, args repoargs.ReturnUpdate) (*domain.Return, error)
}
