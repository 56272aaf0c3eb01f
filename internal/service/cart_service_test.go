package service

import (
	"context"
	"testing"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/internal/service/mocks"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-shop/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CartServiceTestSuite struct {
	suite.Suite
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockCartRepo    *mocks.MockCartRepository
	mockVariantRepo *mocks.MockVariantRepository
	mockUserRepo    *mocks.MockUserRepository
	cartService     *CartService
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (s *CartServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)
	s.mockCartRepo = mocks.NewMockCartRepository(mockCtrl)
	s.mockVariantRepo = mocks.NewMockVariantRepository(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)

	// Мок получения репозиториев из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.CartRepoName)).
		Return(s.mockCartRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.VariantRepoName)).
		Return(s.mockVariantRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()

	cartService, servErr := NewCartService(s.mockUOW)
	s.Require().NoError(servErr)
	s.cartService = cartService
}

func (s *CartServiceTestSuite) TestAddItemAccumulates() {
	var userID int64 = 1
	var variantID int64 = 7
	cart := domain.Cart{ID: 3, UserID: userID}
	variant := domain.ProductVariant{ID: variantID, Price: decimal.NewFromInt(100), Stock: 5}

	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), userID).Return(&domain.User{ID: userID}, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&cart, nil)
	s.mockVariantRepo.EXPECT().FindByID(gomock.Any(), variantID).Return(&variant, nil)
	// В корзине уже лежит 2 единицы, добавляем еще 3 - итог 5.
	s.mockCartRepo.EXPECT().FindItem(gomock.Any(), cart.ID, variantID).
		Return(&domain.CartItem{CartID: cart.ID, VariantID: variantID, Quantity: 2}, nil)
	s.mockCartRepo.EXPECT().
		UpsertItem(gomock.Any(), repoargs.UpsertCartItem{CartID: cart.ID, VariantID: variantID, Quantity: 5}).
		Return(&domain.CartItem{CartID: cart.ID, VariantID: variantID, Quantity: 5}, nil)

	item, err := s.cartService.AddItem(context.Background(), userID, variantID, 3)
	s.Require().NoError(err)
	s.Equal(int32(5), item.Quantity)
}

func (s *CartServiceTestSuite) TestAddItemOverStock() {
	var userID int64 = 1
	var variantID int64 = 7
	cart := domain.Cart{ID: 3, UserID: userID}
	variant := domain.ProductVariant{ID: variantID, Price: decimal.NewFromInt(100), Stock: 5}

	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), userID).Return(&domain.User{ID: userID}, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&cart, nil)
	s.mockVariantRepo.EXPECT().FindByID(gomock.Any(), variantID).Return(&variant, nil)
	// 5 единиц уже в корзине, остаток 5: добавление еще одной должно упасть.
	s.mockCartRepo.EXPECT().FindItem(gomock.Any(), cart.ID, variantID).
		Return(&domain.CartItem{CartID: cart.ID, VariantID: variantID, Quantity: 5}, nil)

	item, err := s.cartService.AddItem(context.Background(), userID, variantID, 1)
	s.Nil(item)

	var stockErr *domain.InsufficientStockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal(variantID, stockErr.VariantID)
	s.Equal(int32(6), stockErr.Requested)
	s.Equal(int32(5), stockErr.Available)
}

func (s *CartServiceTestSuite) TestAddItemNegativeQuantity() {
	item, err := s.cartService.AddItem(context.Background(), 1, 7, -1)
	s.Nil(item)
	s.Require().ErrorIs(err, domain.ErrInvalidQuantity)
}

func (s *CartServiceTestSuite) TestAddItemZeroRemoves() {
	var userID int64 = 1
	var variantID int64 = 7
	cart := domain.Cart{ID: 3, UserID: userID}

	s.mockUserRepo.EXPECT().FindUserByID(gomock.Any(), userID).Return(&domain.User{ID: userID}, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&cart, nil)
	// Позиции могло и не быть - отсутствие записи не ошибка.
	s.mockCartRepo.EXPECT().DeleteItem(gomock.Any(), cart.ID, variantID).
		Return(domain.ErrRecordNotFound)

	item, err := s.cartService.AddItem(context.Background(), userID, variantID, 0)
	s.Require().NoError(err)
	s.Nil(item)
}

func (s *CartServiceTestSuite) TestGetCartEmpty() {
	var userID int64 = 1
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).
		Return(nil, domain.ErrRecordNotFound)

	view, err := s.cartService.GetCart(context.Background(), userID)
	s.Require().NoError(err)
	s.Empty(view.Items)
	s.Equal(int32(0), view.Count)
	s.True(view.Price.IsZero())
}

func (s *CartServiceTestSuite) TestGetCartTotals() {
	var userID int64 = 1
	cart := domain.Cart{ID: 3, UserID: userID}
	details := []repoargs.CartItemDetail{
		{VariantID: 7, Price: decimal.NewFromInt(100), Quantity: 2},
		{VariantID: 8, Price: decimal.NewFromFloat(49.50), Quantity: 1},
	}

	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&cart, nil)
	s.mockCartRepo.EXPECT().GetItemDetails(gomock.Any(), cart.ID).Return(details, nil)

	view, err := s.cartService.GetCart(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal(int32(3), view.Count)
	s.True(view.Price.Equal(decimal.NewFromFloat(249.50)))
}

func (s *CartServiceTestSuite) TestMergeCartsNoGuestCart() {
	var guestUserID int64 = 10
	var userID int64 = 1

	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.CartRepoName)).Return(s.mockCartRepo, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), guestUserID).
		Return(nil, domain.ErrRecordNotFound)

	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})

	// Повторное слияние (гостевая корзина уже слита) не должно быть ошибкой.
	err := s.cartService.MergeCarts(context.Background(), guestUserID, userID)
	s.Require().NoError(err)
}

func (s *CartServiceTestSuite) TestMergeCartsReassignsWhenUserHasNoCart() {
	var guestUserID int64 = 10
	var userID int64 = 1
	guestCart := domain.Cart{ID: 5, UserID: guestUserID}

	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.CartRepoName)).Return(s.mockCartRepo, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), guestUserID).Return(&guestCart, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).
		Return(nil, domain.ErrRecordNotFound)
	s.mockCartRepo.EXPECT().ReassignOwner(gomock.Any(), guestCart.ID, userID).Return(nil)

	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})

	err := s.cartService.MergeCarts(context.Background(), guestUserID, userID)
	s.Require().NoError(err)
}

func (s *CartServiceTestSuite) TestMergeCartsSumsQuantities() {
	var guestUserID int64 = 10
	var userID int64 = 1
	guestCart := domain.Cart{ID: 5, UserID: guestUserID}
	userCart := domain.Cart{ID: 6, UserID: userID}

	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.CartRepoName)).Return(s.mockCartRepo, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), guestUserID).Return(&guestCart, nil)
	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&userCart, nil)

	guestItems := []domain.CartItem{
		{CartID: guestCart.ID, VariantID: 7, Quantity: 2},
		{CartID: guestCart.ID, VariantID: 8, Quantity: 1},
	}
	s.mockCartRepo.EXPECT().GetItems(gomock.Any(), guestCart.ID).Return(guestItems, nil)

	// Вариант 7 есть в обеих корзинах - количества складываются 2+3=5.
	s.mockCartRepo.EXPECT().FindItem(gomock.Any(), userCart.ID, int64(7)).
		Return(&domain.CartItem{CartID: userCart.ID, VariantID: 7, Quantity: 3}, nil)
	s.mockCartRepo.EXPECT().
		UpsertItem(gomock.Any(), repoargs.UpsertCartItem{CartID: userCart.ID, VariantID: 7, Quantity: 5}).
		Return(&domain.CartItem{CartID: userCart.ID, VariantID: 7, Quantity: 5}, nil)

	// Вариант 8 есть только у гостя - переносится как есть.
	s.mockCartRepo.EXPECT().FindItem(gomock.Any(), userCart.ID, int64(8)).
		Return(nil, domain.ErrRecordNotFound)
	s.mockCartRepo.EXPECT().
		UpsertItem(gomock.Any(), repoargs.UpsertCartItem{CartID: userCart.ID, VariantID: 8, Quantity: 1}).
		Return(&domain.CartItem{CartID: userCart.ID, VariantID: 8, Quantity: 1}, nil)

	s.mockCartRepo.EXPECT().DeleteCart(gomock.Any(), guestCart.ID).Return(nil)

	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})

	err := s.cartService.MergeCarts(context.Background(), guestUserID, userID)
	s.Require().NoError(err)
}

func (s *CartServiceTestSuite) TestUpdateItemRequiresExisting() {
	var userID int64 = 1
	var variantID int64 = 7
	cart := domain.Cart{ID: 3, UserID: userID}

	s.mockCartRepo.EXPECT().FindByUserID(gomock.Any(), userID).Return(&cart, nil)
	s.mockCartRepo.EXPECT().FindItem(gomock.Any(), cart.ID, variantID).
		Return(nil, domain.ErrRecordNotFound)

	item, err := s.cartService.UpdateItem(context.Background(), userID, variantID, 2)
	s.Nil(item)
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}
