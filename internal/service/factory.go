package service

import (
	"fmt"
	"time"

	"github.com/fsdevblog/groph-shop/pkg/uow"
)

type AppServices struct {
	UserService   *UserService
	CartService   *CartService
	OrderService  *OrderService
	ReturnService *ReturnService
}

func Factory(unitOfWork uow.UOW, jwtSecret []byte, returnWindow time.Duration) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork, jwtSecret)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	cartService, cartServiceErr := NewCartService(unitOfWork)
	if cartServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", cartServiceErr.Error())
	}

	orderService, orderServiceErr := NewOrderService(unitOfWork, returnWindow)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	returnService, returnServiceErr := NewReturnService(unitOfWork)
	if returnServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", returnServiceErr.Error())
	}

	return &AppServices{
		UserService:   userService,
		CartService:   cartService,
		OrderService:  orderService,
		ReturnService: returnService,
	}, nil
}
