package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
	NewGuestSession(ctx context.Context) (*domain.User, string, error)
}

type CartServicer interface {
	GetCart(ctx context.Context, userID int64) (*service.CartView, error)
	AddItem(ctx context.Context, userID, variantID int64, quantity int32) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, variantID int64, quantity int32) (*domain.CartItem, error)
	DeleteItem(ctx context.Context, userID, variantID int64) error
	ClearCart(ctx context.Context, userID int64) error
	MergeCarts(ctx context.Context, guestUserID, userID int64) error
}

type OrderServicer interface {
	Create(ctx context.Context, userID, addressID int64) (*domain.Order, error)
	GetByUserID(ctx context.Context, userID int64, filter repoargs.OrdersFilter) ([]domain.Order, error)
	UpdateItemDeliveryStatus(
		ctx context.Context,
		itemID int64,
		status domain.DeliveryStatusType,
	) (*domain.OrderItem, error)
}

type ReturnServicer interface {
	CreateReturn(ctx context.Context, orderItemID, userID int64, reason string) (*domain.Return, error)
	UpdateReturn(ctx context.Context, id int64, patch repoargs.ReturnUpdate) (*domain.Return, error)
}
