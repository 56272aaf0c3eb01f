package service

import (
	"context"
	"testing"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/internal/service/mocks"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-shop/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReturnServiceTestSuite struct {
	suite.Suite
	mockUOW        *uowmocks.MockUOW
	mockTX         *uowmocks.MockTX
	mockReturnRepo *mocks.MockReturnRepository
	mockOrderRepo  *mocks.MockOrderRepository
	mockUserRepo   *mocks.MockUserRepository
	returnService  *ReturnService
}

func TestReturnServiceSuite(t *testing.T) {
	suite.Run(t, new(ReturnServiceTestSuite))
}

func (s *ReturnServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)
	s.mockReturnRepo = mocks.NewMockReturnRepository(mockCtrl)
	s.mockOrderRepo = mocks.NewMockOrderRepository(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)

	// Мок получения репозиториев из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.ReturnRepoName)).
		Return(s.mockReturnRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()

	returnService, servErr := NewReturnService(s.mockUOW)
	s.Require().NoError(servErr)
	s.returnService = returnService
}

func (s *ReturnServiceTestSuite) expectDo() {
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})
}

func (s *ReturnServiceTestSuite) expectCreateTxRepos() {
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.OrderRepoName)).Return(s.mockOrderRepo, nil)
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.ReturnRepoName)).Return(s.mockReturnRepo, nil)
}

func (s *ReturnServiceTestSuite) TestCreateReturn() {
	var orderItemID int64 = 100
	var userID int64 = 1
	itemWithOwner := repoargs.OrderItemWithOwner{
		Item: domain.OrderItem{
			ID:             orderItemID,
			OrderID:        10,
			ReturnDeadline: time.Now().Add(24 * time.Hour),
		},
		OrderUserID: userID,
	}

	s.expectCreateTxRepos()
	s.expectDo()

	s.mockOrderRepo.EXPECT().FindItemByID(gomock.Any(), orderItemID).Return(&itemWithOwner, nil)
	s.mockReturnRepo.EXPECT().FindByOrderItemID(gomock.Any(), orderItemID).
		Return(nil, domain.ErrRecordNotFound)
	s.mockReturnRepo.EXPECT().Create(gomock.Any(), orderItemID, "defective").
		Return(&domain.Return{ID: 1, OrderItemID: orderItemID, Status: domain.ReturnStatusPending}, nil)

	ret, err := s.returnService.CreateReturn(context.Background(), orderItemID, userID, "defective")
	s.Require().NoError(err)
	s.Equal(domain.ReturnStatusPending, ret.Status)
}

func (s *ReturnServiceTestSuite) TestCreateReturnDuplicate() {
	var orderItemID int64 = 100
	var userID int64 = 1
	itemWithOwner := repoargs.OrderItemWithOwner{
		Item: domain.OrderItem{
			ID:             orderItemID,
			ReturnDeadline: time.Now().Add(24 * time.Hour),
		},
		OrderUserID: userID,
	}

	s.expectCreateTxRepos()
	s.expectDo()

	s.mockOrderRepo.EXPECT().FindItemByID(gomock.Any(), orderItemID).Return(&itemWithOwner, nil)
	// Заявка на эту позицию уже существует.
	s.mockReturnRepo.EXPECT().FindByOrderItemID(gomock.Any(), orderItemID).
		Return(&domain.Return{ID: 1, OrderItemID: orderItemID}, nil)

	ret, err := s.returnService.CreateReturn(context.Background(), orderItemID, userID, "again")
	s.Nil(ret)
	s.Require().ErrorIs(err, domain.ErrReturnAlreadyExists)
}

func (s *ReturnServiceTestSuite) TestCreateReturnExpired() {
	var orderItemID int64 = 100
	var userID int64 = 1
	itemWithOwner := repoargs.OrderItemWithOwner{
		Item: domain.OrderItem{
			ID:             orderItemID,
			ReturnDeadline: time.Now().Add(-time.Hour),
		},
		OrderUserID: userID,
	}

	s.expectCreateTxRepos()
	s.expectDo()

	s.mockOrderRepo.EXPECT().FindItemByID(gomock.Any(), orderItemID).Return(&itemWithOwner, nil)
	s.mockReturnRepo.EXPECT().FindByOrderItemID(gomock.Any(), orderItemID).
		Return(nil, domain.ErrRecordNotFound)

	ret, err := s.returnService.CreateReturn(context.Background(), orderItemID, userID, "late")
	s.Nil(ret)
	s.Require().ErrorIs(err, domain.ErrReturnWindowExpired)
}

func (s *ReturnServiceTestSuite) TestCanReturnOrderItemForeign() {
	var orderItemID int64 = 100
	itemWithOwner := repoargs.OrderItemWithOwner{
		Item:        domain.OrderItem{ID: orderItemID, ReturnDeadline: time.Now().Add(24 * time.Hour)},
		OrderUserID: 999,
	}

	s.mockOrderRepo.EXPECT().FindItemByID(gomock.Any(), orderItemID).Return(&itemWithOwner, nil)

	err := s.returnService.CanReturnOrderItem(context.Background(), orderItemID, 1)
	s.Require().ErrorIs(err, domain.ErrOwnerConflict)
}

func (s *ReturnServiceTestSuite) expectUpdateTxRepos() {
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.ReturnRepoName)).Return(s.mockReturnRepo, nil)
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.UserRepoName)).Return(s.mockUserRepo, nil)
}

func (s *ReturnServiceTestSuite) TestUpdateReturnRefundCreditsBalance() {
	var returnID int64 = 1
	var ownerID int64 = 42
	price := decimal.NewFromInt(50)

	current := repoargs.ReturnWithOrderItem{
		Return:       domain.Return{ID: returnID, OrderItemID: 100, Status: domain.ReturnStatusPending},
		OrderUserID:  ownerID,
		PriceAtOrder: price,
	}
	refunded := domain.ReturnStatusRefunded
	patch := repoargs.ReturnUpdate{Status: &refunded}

	s.expectUpdateTxRepos()
	s.expectDo()

	s.mockReturnRepo.EXPECT().FindByID(gomock.Any(), returnID).Return(&current, nil)
	s.mockReturnRepo.EXPECT().Update(gomock.Any(), returnID, patch).
		Return(&domain.Return{ID: returnID, OrderItemID: 100, Status: refunded}, nil)
	// PENDING -> REFUNDED: цена позиции зачисляется владельцу заказа ровно один раз.
	s.mockUserRepo.EXPECT().CreditBalance(gomock.Any(), ownerID, price).
		Return(&domain.User{ID: ownerID, Balance: price}, nil)

	ret, err := s.returnService.UpdateReturn(context.Background(), returnID, patch)
	s.Require().NoError(err)
	s.Equal(refunded, ret.Status)
}

// TestUpdateReturnRepeatedRefundCreditsOnce два перевода одной заявки в REFUNDED подряд.
// Блокировка строки заявки в FindByID сериализует транзакции: вторая читает уже REFUNDED,
// переход REFUNDED -> REFUNDED баланс не трогает, сумма зачисляется ровно один раз.
func (s *ReturnServiceTestSuite) TestUpdateReturnRepeatedRefundCreditsOnce() {
	var returnID int64 = 1
	var ownerID int64 = 42
	price := decimal.NewFromInt(50)

	refunded := domain.ReturnStatusRefunded
	patch := repoargs.ReturnUpdate{Status: &refunded}

	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.ReturnRepoName)).
		Return(s.mockReturnRepo, nil).Times(2)
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).Times(2)
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).Times(2)

	pending := repoargs.ReturnWithOrderItem{
		Return:       domain.Return{ID: returnID, OrderItemID: 100, Status: domain.ReturnStatusPending},
		OrderUserID:  ownerID,
		PriceAtOrder: price,
	}
	alreadyRefunded := pending
	alreadyRefunded.Return.Status = refunded

	first := s.mockReturnRepo.EXPECT().FindByID(gomock.Any(), returnID).Return(&pending, nil)
	s.mockReturnRepo.EXPECT().FindByID(gomock.Any(), returnID).
		Return(&alreadyRefunded, nil).After(first)
	s.mockReturnRepo.EXPECT().Update(gomock.Any(), returnID, patch).
		Return(&domain.Return{ID: returnID, OrderItemID: 100, Status: refunded}, nil).Times(2)
	s.mockUserRepo.EXPECT().CreditBalance(gomock.Any(), ownerID, price).
		Return(&domain.User{ID: ownerID, Balance: price}, nil).Times(1)

	for i := 0; i < 2; i++ {
		ret, err := s.returnService.UpdateReturn(context.Background(), returnID, patch)
		s.Require().NoError(err)
		s.Equal(refunded, ret.Status)
	}
}

func (s *ReturnServiceTestSuite) TestUpdateReturnReversalDebitsClamped() {
	var returnID int64 = 1
	var ownerID int64 = 42
	price := decimal.NewFromInt(50)

	current := repoargs.ReturnWithOrderItem{
		Return:       domain.Return{ID: returnID, OrderItemID: 100, Status: domain.ReturnStatusRefunded},
		OrderUserID:  ownerID,
		PriceAtOrder: price,
	}
	denied := domain.ReturnStatusDenied
	patch := repoargs.ReturnUpdate{Status: &denied}

	s.expectUpdateTxRepos()
	s.expectDo()

	s.mockReturnRepo.EXPECT().FindByID(gomock.Any(), returnID).Return(&current, nil)
	s.mockReturnRepo.EXPECT().Update(gomock.Any(), returnID, patch).
		Return(&domain.Return{ID: returnID, OrderItemID: 100, Status: denied}, nil)
	// REFUNDED -> DENIED: сумма списывается обратно, баланс не уходит ниже нуля.
	s.mockUserRepo.EXPECT().DebitBalanceClamped(gomock.Any(), ownerID, price).
		Return(&domain.User{ID: ownerID, Balance: decimal.Zero}, nil)

	ret, err := s.returnService.UpdateReturn(context.Background(), returnID, patch)
	s.Require().NoError(err)
	s.Equal(denied, ret.Status)
}

func (s *ReturnServiceTestSuite) TestUpdateReturnReasonOnly() {
	var returnID int64 = 1
	reason := "changed my mind"
	patch := repoargs.ReturnUpdate{Reason: &reason}

	current := repoargs.ReturnWithOrderItem{
		Return:       domain.Return{ID: returnID, OrderItemID: 100, Status: domain.ReturnStatusPending},
		OrderUserID:  42,
		PriceAtOrder: decimal.NewFromInt(50),
	}

	s.expectUpdateTxRepos()
	s.expectDo()

	s.mockReturnRepo.EXPECT().FindByID(gomock.Any(), returnID).Return(&current, nil)
	// Статус не меняется - баланс не трогаем (моки баланса не настроены).
	s.mockReturnRepo.EXPECT().Update(gomock.Any(), returnID, patch).
		Return(&domain.Return{ID: returnID, OrderItemID: 100, Reason: reason, Status: domain.ReturnStatusPending}, nil)

	ret, err := s.returnService.UpdateReturn(context.Background(), returnID, patch)
	s.Require().NoError(err)
	s.Equal(reason, ret.Reason)
}

func (s *ReturnServiceTestSuite) TestUpdateReturnInvalidStatus() {
	bogus := domain.ReturnStatusType("SHREDDED")
	_, err := s.returnService.UpdateReturn(context.Background(), 1, repoargs.ReturnUpdate{Status: &bogus})
	s.Require().ErrorIs(err, domain.ErrInvalidReturnStatus)
}
