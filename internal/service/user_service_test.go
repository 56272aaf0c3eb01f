package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/internal/service/mocks"
	"github.com/fsdevblog/groph-shop/internal/transport/api/tokens"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-shop/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceTestSuite struct {
	suite.Suite
	mockUOW      *uowmocks.MockUOW
	mockTX       *uowmocks.MockTX
	mockUserRepo *mocks.MockUserRepository
	jwtSecret    []byte
	userService  *UserService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)

	s.jwtSecret = []byte("secret")

	// Мок получения репозитория из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()

	userService, servErr := NewUserService(s.mockUOW, s.jwtSecret)
	s.Require().NoError(servErr)
	s.userService = userService
}

func (s *UserServiceTestSuite) TestRegister() {
	args := RegisterUserArgs{
		Username: gofakeit.Username(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}

	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.UserRepoName)).Return(s.mockUserRepo, nil)
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})

	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, createArgs repoargs.CreateUser) (*domain.User, error) {
			s.Equal(args.Username, createArgs.Username)
			s.False(createArgs.Guest)
			// В базу должен уходить хеш, а не сам пароль.
			s.NotEqual(args.Password, createArgs.Password)
			s.NoError(bcrypt.CompareHashAndPassword([]byte(createArgs.Password), []byte(args.Password)))
			return &domain.User{ID: 1, Username: createArgs.Username, Password: createArgs.Password}, nil
		})

	user, tokenStr, err := s.userService.Register(context.Background(), args)
	s.Require().NoError(err)
	s.Equal(args.Username, user.Username)
	s.NotEmpty(tokenStr)

	token, tokenErr := tokens.ValidateUserJWT(tokenStr, s.jwtSecret)
	s.Require().NoError(tokenErr)
	s.Equal(int64(1), token.Claims.(*tokens.UserClaims).ID) //nolint:errcheck
}

func (s *UserServiceTestSuite) TestLogin() {
	password := gofakeit.Password(true, true, true, false, false, 12)
	hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(hashErr)

	savedUser := domain.User{
		ID:        1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Username:  "test",
		Password:  string(hash),
	}

	s.mockUserRepo.EXPECT().
		FindUserByUsername(gomock.Any(), savedUser.Username).
		Return(&savedUser, nil).Times(2)
	s.mockUserRepo.EXPECT().
		FindUserByUsername(gomock.Any(), "wrong").
		Return(nil, domain.ErrRecordNotFound)

	cases := []struct {
		name    string
		args    LoginUserArgs
		wantErr error
	}{
		{name: "ok", args: LoginUserArgs{Username: savedUser.Username, Password: password}},
		{
			name:    "wrong username",
			args:    LoginUserArgs{Username: "wrong", Password: password},
			wantErr: domain.ErrRecordNotFound,
		}, {
			name:    "wrong password",
			args:    LoginUserArgs{Username: savedUser.Username, Password: "wrong pass"},
			wantErr: domain.ErrPasswordMissMatch,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			user, tokenStr, err := s.userService.Login(context.Background(), t.args)
			if t.wantErr != nil {
				s.Require().ErrorIs(err, t.wantErr)
				return
			}
			s.Require().NoError(err)
			s.NotEmpty(tokenStr)

			token, tokenErr := tokens.ValidateUserJWT(tokenStr, s.jwtSecret)
			s.Require().NoError(tokenErr)
			s.Equal(savedUser.ID, token.Claims.(*tokens.UserClaims).ID) //nolint:errcheck
			s.NotNil(user)
		})
	}
}

func (s *UserServiceTestSuite) TestNewGuestSession() {
	s.mockUserRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, createArgs repoargs.CreateUser) (*domain.User, error) {
			s.True(createArgs.Guest)
			s.True(strings.HasPrefix(createArgs.Username, "guest-"))
			return &domain.User{ID: 7, Username: createArgs.Username, Guest: true}, nil
		})

	user, tokenStr, err := s.userService.NewGuestSession(context.Background())
	s.Require().NoError(err)
	s.True(user.Guest)

	token, tokenErr := tokens.ValidateUserJWT(tokenStr, s.jwtSecret)
	s.Require().NoError(tokenErr)
	s.Equal(int64(7), token.Claims.(*tokens.UserClaims).ID) //nolint:errcheck
}
