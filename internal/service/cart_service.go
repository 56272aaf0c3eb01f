package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	"github.com/shopspring/decimal"
)

type CartService struct {
	uow         uow.UOW
	cartRepo    CartRepository
	variantRepo VariantRepository
	userRepo    UserRepository
}

func NewCartService(u uow.UOW) (*CartService, error) {
	cartRepo, cartRepoErr := uow.GetRepositoryAs[CartRepository](u, uow.RepositoryName(repoargs.CartRepoName))
	if cartRepoErr != nil {
		return nil, cartRepoErr
	}
	variantRepo, variantRepoErr := uow.GetRepositoryAs[VariantRepository](u, uow.RepositoryName(repoargs.VariantRepoName))
	if variantRepoErr != nil {
		return nil, variantRepoErr
	}
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	return &CartService{
		uow:         u,
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		userRepo:    userRepo,
	}, nil
}

// CartView содержимое корзины для отображения: строки со сводкой товара,
// суммарное количество единиц и общая стоимость.
type CartView struct {
	Items []repoargs.CartItemDetail
	Count int32
	Price decimal.Decimal
}

// GetCart возвращает содержимое корзины юзера. Отсутствие корзины не является ошибкой -
// вернется пустой CartView.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	cart, cartErr := s.cartRepo.FindByUserID(ctx, userID)
	if cartErr != nil {
		if errors.Is(cartErr, domain.ErrRecordNotFound) {
			return &CartView{Items: []repoargs.CartItemDetail{}, Price: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("getting cart: %w", cartErr)
	}

	details, detailsErr := s.cartRepo.GetItemDetails(ctx, cart.ID)
	if detailsErr != nil {
		return nil, fmt.Errorf("getting cart: %w", detailsErr)
	}

	view := CartView{Items: details, Price: decimal.Zero}
	if view.Items == nil {
		view.Items = []repoargs.CartItemDetail{}
	}
	for _, d := range details {
		view.Count += d.Quantity
		view.Price = view.Price.Add(d.Price.Mul(decimal.NewFromInt32(d.Quantity)))
	}
	return &view, nil
}

// AddItem добавляет quantity единиц варианта в корзину юзера. Повторное добавление того же
// варианта накапливает количество. Проверка остатка здесь - рекомендательная: обязательная
// выполняется повторно внутри транзакции чекаута.
//
// quantity == 0 удаляет позицию (если она была), отрицательное значение - ошибка
// domain.ErrInvalidQuantity.
func (s *CartService) AddItem(
	ctx context.Context,
	userID, variantID int64,
	quantity int32,
) (*domain.CartItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, cartErr := s.getOrCreateCart(ctx, userID)
	if cartErr != nil {
		return nil, fmt.Errorf("adding cart item: %w", cartErr)
	}

	if quantity == 0 {
		if delErr := s.cartRepo.DeleteItem(ctx, cart.ID, variantID); delErr != nil &&
			!errors.Is(delErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("adding cart item: %w", delErr)
		}
		return nil, nil //nolint:nilnil
	}

	variant, variantErr := s.variantRepo.FindByID(ctx, variantID)
	if variantErr != nil {
		return nil, fmt.Errorf("adding cart item: %w", variantErr)
	}

	var existingQty int32
	existing, existingErr := s.cartRepo.FindItem(ctx, cart.ID, variantID)
	if existingErr != nil && !errors.Is(existingErr, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("adding cart item: %w", existingErr)
	}
	if existing != nil {
		existingQty = existing.Quantity
	}

	total := existingQty + quantity
	if total > variant.Stock {
		return nil, domain.NewInsufficientStockError(variantID, total, variant.Stock)
	}

	item, upsertErr := s.cartRepo.UpsertItem(ctx, repoargs.UpsertCartItem{
		CartID:    cart.ID,
		VariantID: variantID,
		Quantity:  total,
	})
	if upsertErr != nil {
		return nil, fmt.Errorf("adding cart item: %w", upsertErr)
	}
	return item, nil
}

// UpdateItem заменяет количество позиции на quantity. quantity == 0 удаляет позицию,
// в этом случае возвращается nil. Позиция должна существовать.
func (s *CartService) UpdateItem(
	ctx context.Context,
	userID, variantID int64,
	quantity int32,
) (*domain.CartItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, cartErr := s.cartRepo.FindByUserID(ctx, userID)
	if cartErr != nil {
		return nil, fmt.Errorf("updating cart item: %w", cartErr)
	}

	if _, itemErr := s.cartRepo.FindItem(ctx, cart.ID, variantID); itemErr != nil {
		return nil, fmt.Errorf("updating cart item: %w", itemErr)
	}

	if quantity == 0 {
		if delErr := s.cartRepo.DeleteItem(ctx, cart.ID, variantID); delErr != nil {
			return nil, fmt.Errorf("updating cart item: %w", delErr)
		}
		return nil, nil //nolint:nilnil
	}

	variant, variantErr := s.variantRepo.FindByID(ctx, variantID)
	if variantErr != nil {
		return nil, fmt.Errorf("updating cart item: %w", variantErr)
	}
	if quantity > variant.Stock {
		return nil, domain.NewInsufficientStockError(variantID, quantity, variant.Stock)
	}

	item, upsertErr := s.cartRepo.UpsertItem(ctx, repoargs.UpsertCartItem{
		CartID:    cart.ID,
		VariantID: variantID,
		Quantity:  quantity,
	})
	if upsertErr != nil {
		return nil, fmt.Errorf("updating cart item: %w", upsertErr)
	}
	return item, nil
}

func (s *CartService) DeleteItem(ctx context.Context, userID, variantID int64) error {
	cart, cartErr := s.cartRepo.FindByUserID(ctx, userID)
	if cartErr != nil {
		return fmt.Errorf("deleting cart item: %w", cartErr)
	}
	if delErr := s.cartRepo.DeleteItem(ctx, cart.ID, variantID); delErr != nil {
		return fmt.Errorf("deleting cart item: %w", delErr)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	cart, cartErr := s.cartRepo.FindByUserID(ctx, userID)
	if cartErr != nil {
		return fmt.Errorf("clearing cart: %w", cartErr)
	}
	if delErr := s.cartRepo.DeleteAllItems(ctx, cart.ID); delErr != nil {
		return fmt.Errorf("clearing cart: %w", delErr)
	}
	return nil
}

// MergeCarts переносит корзину гостя юзеру при повышении анонимной сессии до
// аутентифицированной.
//
// Алгоритм работы:
//  1. Гостевой корзины нет (в т.ч. она уже слита ранее) - no-op: операция безопасна
//     при повторном вызове.
//  2. Корзины юзера нет - гостевая корзина целиком переводится на юзера.
//  3. Обе корзины есть - количества совпадающих вариантов суммируются в корзине юзера,
//     остальные позиции переносятся, гостевая корзина удаляется.
//
// Остаток на складе здесь не проверяется: обязательная проверка выполнится при чекауте.
func (s *CartService) MergeCarts(ctx context.Context, guestUserID, userID int64) error {
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		cartRepo, cartRepoErr := uow.GetAs[CartRepository](tx, uow.RepositoryName(repoargs.CartRepoName))
		if cartRepoErr != nil {
			return cartRepoErr //nolint:wrapcheck
		}

		guestCart, guestErr := cartRepo.FindByUserID(c, guestUserID)
		if guestErr != nil {
			if errors.Is(guestErr, domain.ErrRecordNotFound) {
				return nil
			}
			return guestErr //nolint:wrapcheck
		}

		userCart, userErr := cartRepo.FindByUserID(c, userID)
		if userErr != nil {
			if errors.Is(userErr, domain.ErrRecordNotFound) {
				// Дешевый путь: у юзера корзины нет, просто меняем владельца.
				return cartRepo.ReassignOwner(c, guestCart.ID, userID) //nolint:wrapcheck
			}
			return userErr //nolint:wrapcheck
		}

		guestItems, itemsErr := cartRepo.GetItems(c, guestCart.ID)
		if itemsErr != nil {
			return itemsErr //nolint:wrapcheck
		}

		for _, guestItem := range guestItems {
			total := guestItem.Quantity

			userItem, findErr := cartRepo.FindItem(c, userCart.ID, guestItem.VariantID)
			if findErr != nil && !errors.Is(findErr, domain.ErrRecordNotFound) {
				return findErr //nolint:wrapcheck
			}
			if userItem != nil {
				total += userItem.Quantity
			}

			if _, upsertErr := cartRepo.UpsertItem(c, repoargs.UpsertCartItem{
				CartID:    userCart.ID,
				VariantID: guestItem.VariantID,
				Quantity:  total,
			}); upsertErr != nil {
				return upsertErr //nolint:wrapcheck
			}
		}

		return cartRepo.DeleteCart(c, guestCart.ID) //nolint:wrapcheck
	})

	if txErr != nil {
		return fmt.Errorf("merging carts: %w", txErr)
	}
	return nil
}

// getOrCreateCart возвращает корзину юзера, лениво создавая её при первой мутации.
// Юзер должен существовать.
func (s *CartService) getOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if _, userErr := s.userRepo.FindUserByID(ctx, userID); userErr != nil {
		return nil, userErr //nolint:wrapcheck
	}

	cart, findErr := s.cartRepo.FindByUserID(ctx, userID)
	if findErr == nil {
		return cart, nil
	}
	if !errors.Is(findErr, domain.ErrRecordNotFound) {
		return nil, findErr //nolint:wrapcheck
	}

	created, createErr := s.cartRepo.CreateCart(ctx, userID)
	if createErr != nil {
		// Конкурентная первая мутация могла успеть создать корзину - перечитываем.
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			return s.cartRepo.FindByUserID(ctx, userID) //nolint:wrapcheck
		}
		return nil, createErr //nolint:wrapcheck
	}
	return created, nil
}
