package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
)

type ReturnService struct {
	uow        uow.UOW
	returnRepo ReturnRepository
	orderRepo  OrderRepository
}

func NewReturnService(u uow.UOW) (*ReturnService, error) {
	returnRepo, returnRepoErr := uow.GetRepositoryAs[ReturnRepository](u, uow.RepositoryName(repoargs.ReturnRepoName))
	if returnRepoErr != nil {
		return nil, returnRepoErr
	}
	orderRepo, orderRepoErr := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if orderRepoErr != nil {
		return nil, orderRepoErr
	}
	return &ReturnService{
		uow:        u,
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
	}, nil
}

// CanReturnOrderItem проверяет что позиция заказа может быть возвращена юзером.
// Ничего не мутирует. Возможные ошибки: domain.ErrRecordNotFound (позиции нет),
// domain.ErrOwnerConflict (заказ чужой), domain.ErrReturnAlreadyExists (заявка уже есть),
// domain.ErrReturnWindowExpired (срок возврата истек).
func (s *ReturnService) CanReturnOrderItem(ctx context.Context, orderItemID, userID int64) error {
	if err := canReturnOrderItem(ctx, s.orderRepo, s.returnRepo, orderItemID, userID); err != nil {
		return fmt.Errorf("checking return eligibility: %w", err)
	}
	return nil
}

// CreateReturn создает заявку на возврат в статусе PENDING. Условия возврата перепроверяются
// в одной транзакции с созданием, а гонку двух одновременных заявок на одну позицию
// останавливает уникальный индекс по order_item_id.
func (s *ReturnService) CreateReturn(
	ctx context.Context,
	orderItemID, userID int64,
	reason string,
) (*domain.Return, error) {
	var created *domain.Return

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr //nolint:wrapcheck
		}
		returnRepo, returnRepoErr := uow.GetAs[ReturnRepository](tx, uow.RepositoryName(repoargs.ReturnRepoName))
		if returnRepoErr != nil {
			return returnRepoErr //nolint:wrapcheck
		}

		if checkErr := canReturnOrderItem(c, orderRepo, returnRepo, orderItemID, userID); checkErr != nil {
			return checkErr
		}

		ret, createErr := returnRepo.Create(c, orderItemID, reason)
		if createErr != nil {
			if errors.Is(createErr, domain.ErrDuplicateKey) {
				return domain.ErrReturnAlreadyExists
			}
			return createErr //nolint:wrapcheck
		}
		created = ret
		return nil
	})

	if txErr != nil {
		return nil, fmt.Errorf("creating return: %w", txErr)
	}
	return created, nil
}

// UpdateReturn применяет патч к заявке на возврат. Побочный эффект зависит от перехода статуса:
//
//   - PENDING -> REFUNDED: баланс юзера увеличивается на цену позиции на момент заказа,
//     ровно один раз;
//   - REFUNDED -> любой другой: та же сумма списывается обратно, баланс не опускается ниже нуля;
//   - остальные переходы баланс не трогают.
//
// Смена статуса и движение баланса коммитятся как одно целое. Текущий статус читается
// с блокировкой строки заявки, так что конкурентные патчи применяются последовательно
// и повторный перевод в REFUNDED не зачисляет сумму второй раз.
func (s *ReturnService) UpdateReturn(
	ctx context.Context,
	id int64,
	patch repoargs.ReturnUpdate,
) (*domain.Return, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("updating return: %w", domain.ErrInvalidReturnStatus)
	}

	var updated *domain.Return

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		returnRepo, returnRepoErr := uow.GetAs[ReturnRepository](tx, uow.RepositoryName(repoargs.ReturnRepoName))
		if returnRepoErr != nil {
			return returnRepoErr //nolint:wrapcheck
		}
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}

		// FindByID держит блокировку строки заявки до конца транзакции.
		current, findErr := returnRepo.FindByID(c, id)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}

		ret, updErr := returnRepo.Update(c, id, patch)
		if updErr != nil {
			return updErr //nolint:wrapcheck
		}

		if patch.Status != nil {
			from := current.Return.Status
			to := *patch.Status

			switch {
			case from == domain.ReturnStatusPending && to == domain.ReturnStatusRefunded:
				if _, balErr := userRepo.CreditBalance(c, current.OrderUserID, current.PriceAtOrder); balErr != nil {
					return balErr //nolint:wrapcheck
				}
			case from == domain.ReturnStatusRefunded && to != domain.ReturnStatusRefunded:
				if _, balErr := userRepo.DebitBalanceClamped(c, current.OrderUserID, current.PriceAtOrder); balErr != nil {
					return balErr //nolint:wrapcheck
				}
			}
		}

		updated = ret
		return nil
	})

	if txErr != nil {
		return nil, fmt.Errorf("updating return: %w", txErr)
	}
	return updated, nil
}

// canReturnOrderItem общая для precondition-проверки и транзакционной перепроверки логика.
func canReturnOrderItem(
	ctx context.Context,
	orderRepo OrderRepository,
	returnRepo ReturnRepository,
	orderItemID, userID int64,
) error {
	itemWithOwner, itemErr := orderRepo.FindItemByID(ctx, orderItemID)
	if itemErr != nil {
		return itemErr //nolint:wrapcheck
	}
	if itemWithOwner.OrderUserID != userID {
		return domain.ErrOwnerConflict
	}

	_, retErr := returnRepo.FindByOrderItemID(ctx, orderItemID)
	if retErr == nil {
		return domain.ErrReturnAlreadyExists
	}
	if !errors.Is(retErr, domain.ErrRecordNotFound) {
		return retErr //nolint:wrapcheck
	}

	if time.Now().After(itemWithOwner.Item.ReturnDeadline) {
		return domain.ErrReturnWindowExpired
	}
	return nil
}
