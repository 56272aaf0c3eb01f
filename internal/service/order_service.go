package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
)

type OrderService struct {
	uow          uow.UOW
	orderRepo    OrderRepository
	userRepo     UserRepository
	addressRepo  AddressRepository
	returnWindow time.Duration
}

func NewOrderService(u uow.UOW, returnWindow time.Duration) (*OrderService, error) {
	orderRepo, orderRepoErr := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if orderRepoErr != nil {
		return nil, orderRepoErr
	}
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	addressRepo, addressRepoErr := uow.GetRepositoryAs[AddressRepository](u, uow.RepositoryName(repoargs.AddressRepoName))
	if addressRepoErr != nil {
		return nil, addressRepoErr
	}
	return &OrderService{
		uow:          u,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		addressRepo:  addressRepo,
		returnWindow: returnWindow,
	}, nil
}

// Create конвертирует корзину юзера в заказ.
//
// Алгоритм работы:
//  1. Проверяет что юзер существует и адрес принадлежит ему (до каких-либо мутаций).
//  2. Внутри одной транзакции: перечитывает корзину, для каждой позиции выполняет условное
//     списание остатка (UPDATE ... WHERE stock >= quantity), создает заказ и его позиции
//     с ценой зафиксированной на момент заказа, очищает корзину.
//
// Нехватка остатка любой позиции откатывает транзакцию целиком: ни заказа, ни списаний,
// корзина остается нетронутой. Вернется *domain.InsufficientStockError с указанием варианта.
func (o *OrderService) Create(ctx context.Context, userID, addressID int64) (*domain.Order, error) {
	if _, userErr := o.userRepo.FindUserByID(ctx, userID); userErr != nil {
		return nil, fmt.Errorf("creating order: %w", userErr)
	}

	address, addressErr := o.addressRepo.FindByID(ctx, addressID)
	if addressErr != nil {
		return nil, fmt.Errorf("creating order: %w", addressErr)
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("creating order: %w", domain.ErrOwnerConflict)
	}

	var order *domain.Order

	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		cartRepo, cartRepoErr := uow.GetAs[CartRepository](tx, uow.RepositoryName(repoargs.CartRepoName))
		if cartRepoErr != nil {
			return cartRepoErr //nolint:wrapcheck
		}
		variantRepo, variantRepoErr := uow.GetAs[VariantRepository](tx, uow.RepositoryName(repoargs.VariantRepoName))
		if variantRepoErr != nil {
			return variantRepoErr //nolint:wrapcheck
		}
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr //nolint:wrapcheck
		}

		cart, cartErr := cartRepo.FindByUserID(c, userID)
		if cartErr != nil {
			return cartErr //nolint:wrapcheck
		}
		items, itemsErr := cartRepo.GetItems(c, cart.ID)
		if itemsErr != nil {
			return itemsErr //nolint:wrapcheck
		}
		if len(items) == 0 {
			return domain.ErrEmptyCart
		}

		now := time.Now().UTC()
		deadline := now.Add(o.returnWindow)

		// Цена фиксируется из текущего значения варианта, прочитанного в этой же транзакции.
		var itemArgs = make([]repoargs.OrderItemCreate, 0, len(items))
		for _, item := range items {
			variant, variantErr := variantRepo.FindByID(c, item.VariantID)
			if variantErr != nil {
				return variantErr //nolint:wrapcheck
			}
			// Обязательная проверка остатка: условное списание либо проходит, либо
			// откатывает весь чекаут.
			if decErr := variantRepo.DecrementStock(c, item.VariantID, item.Quantity); decErr != nil {
				return decErr //nolint:wrapcheck
			}
			itemArgs = append(itemArgs, repoargs.OrderItemCreate{
				VariantID:      item.VariantID,
				Quantity:       item.Quantity,
				PriceAtOrder:   variant.Price,
				ReturnDeadline: deadline,
			})
		}

		createdOrder, createErr := orderRepo.CreateOrder(c, repoargs.CreateOrder{
			UserID:    userID,
			AddressID: addressID,
			OrderCode: generateOrderCode(now),
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		for i := range itemArgs {
			itemArgs[i].OrderID = createdOrder.ID
		}

		var batchErr error
		orderRepo.BatchCreateItems(c, itemArgs, func(_ int, item *domain.OrderItem, err error) {
			if err != nil {
				batchErr = err
				return
			}
			createdOrder.Items = append(createdOrder.Items, *item)
		})
		if batchErr != nil {
			return batchErr
		}

		if clearErr := cartRepo.DeleteAllItems(c, cart.ID); clearErr != nil {
			return clearErr //nolint:wrapcheck
		}

		order = createdOrder
		return nil
	})

	if txErr != nil {
		return nil, fmt.Errorf("creating order: %w", txErr)
	}
	return order, nil
}

// GetByUserID возвращает заказы юзера с позициями, отсортированные по дате создания по убыванию.
func (o *OrderService) GetByUserID(
	ctx context.Context,
	userID int64,
	filter repoargs.OrdersFilter,
) ([]domain.Order, error) {
	orders, ordersErr := o.orderRepo.GetByUserID(ctx, userID, filter)
	if ordersErr != nil {
		return nil, ordersErr //nolint:wrapcheck
	}
	if len(orders) == 0 {
		return orders, nil
	}

	orderIDs := make([]int64, len(orders))
	indexByID := make(map[int64]int, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
		indexByID[order.ID] = i
	}

	items, itemsErr := o.orderRepo.GetItemsByOrderIDs(ctx, orderIDs)
	if itemsErr != nil {
		return nil, itemsErr //nolint:wrapcheck
	}
	for _, item := range items {
		i := indexByID[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, nil
}

// UpdateItemDeliveryStatus обновляет статус доставки одной позиции заказа. Когда после
// обновления все позиции заказа доставлены, агрегатный статус заказа также переводится
// в DELIVERED - в той же транзакции.
func (o *OrderService) UpdateItemDeliveryStatus(
	ctx context.Context,
	itemID int64,
	status domain.DeliveryStatusType,
) (*domain.OrderItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("updating delivery status: %w", domain.ErrInvalidDeliveryState)
	}

	var updated *domain.OrderItem

	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr //nolint:wrapcheck
		}

		item, updErr := orderRepo.UpdateItemDeliveryStatus(c, itemID, status)
		if updErr != nil {
			return updErr //nolint:wrapcheck
		}

		if status == domain.DeliveryStatusDelivered {
			// Пересчет агрегата идет под блокировкой строки заказа: обновления последних
			// позиций одного заказа сериализуются, и финальное видит их все доставленными.
			if lockErr := orderRepo.LockOrder(c, item.OrderID); lockErr != nil {
				return lockErr //nolint:wrapcheck
			}
			notDelivered, countErr := orderRepo.CountItemsNotDelivered(c, item.OrderID)
			if countErr != nil {
				return countErr //nolint:wrapcheck
			}
			if notDelivered == 0 {
				if orderUpdErr := orderRepo.UpdateOrderDeliveryStatus(
					c, item.OrderID, domain.DeliveryStatusDelivered,
				); orderUpdErr != nil {
					return orderUpdErr //nolint:wrapcheck
				}
			}
		}

		updated = item
		return nil
	})

	if txErr != nil {
		return nil, fmt.Errorf("updating delivery status: %w", txErr)
	}
	return updated, nil
}
