package api

import (
	"time"

	"github.com/fsdevblog/groph-shop/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup             = "/api"
	RegisterRoute          = "/user/register"
	LoginRoute             = "/user/login"
	GuestRoute             = "/user/guest"
	CartRoute              = "/user/cart"
	CartItemsRoute         = "/user/cart/items"
	CartItemRoute          = "/user/cart/items/:variantID"
	OrdersRoute            = "/user/orders"
	OrderItemDeliveryRoute = "/order-items/:itemID/delivery-status"
	ReturnsRoute           = "/user/returns"
	ReturnRoute            = "/user/returns/:returnID"
)

type RouterArgs struct {
	Logger        *logrus.Logger
	UserService   UserServicer
	CartService   CartServicer
	OrderService  OrderServicer
	ReturnService ReturnServicer
	JWTSecretKey  []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService, args.CartService, args.JWTSecretKey)
	cartHandler := NewCartHandler(args.CartService)
	ordersHandler := NewOrdersHandler(args.OrderService)
	returnsHandler := NewReturnsHandler(args.ReturnService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)
	api.POST(GuestRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Guest)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.GET(CartRoute, cartHandler.Show)
	api.DELETE(CartRoute, cartHandler.Clear)
	api.POST(CartItemsRoute, cartHandler.AddItem)
	api.PUT(CartItemRoute, cartHandler.UpdateItem)
	api.DELETE(CartItemRoute, cartHandler.DeleteItem)

	api.POST(OrdersRoute, ordersHandler.Create)
	api.GET(OrdersRoute, ordersHandler.Index)
	api.PATCH(OrderItemDeliveryRoute, ordersHandler.UpdateItemDeliveryStatus)

	api.POST(ReturnsRoute, returnsHandler.Create)
	api.PATCH(ReturnRoute, returnsHandler.Update)
	return r, nil
}
