package api

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/logger"
	"github.com/fsdevblog/groph-shop/internal/service"
	"github.com/fsdevblog/groph-shop/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-shop/internal/transport/api/testutils"
	"github.com/fsdevblog/groph-shop/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockUserService *mocks.MockUserServicer
	mockCartService *mocks.MockCartServicer
	jwtSecret       []byte
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockUserService = mocks.NewMockUserServicer(mockCtrl)
	s.mockCartService = mocks.NewMockCartServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, routerErr := New(RouterArgs{
		Logger:       logger.New(os.Stdout),
		UserService:  s.mockUserService,
		CartService:  s.mockCartService,
		JWTSecretKey: s.jwtSecret,
	})
	s.Require().NoError(routerErr)
	s.router = router
}

func (s *AuthHandlerTestSuite) TestRegister() {
	user := domain.User{ID: 1, Username: "newuser"}

	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Username: "newuser", Password: "password1"}).
		Return(&user, "jwt-token", nil)
	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Username: "taken", Password: "password1"}).
		Return(nil, "", domain.ErrDuplicateKey)

	cases := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{name: "ok", payload: `{"login":"newuser","password":"password1"}`, wantStatus: http.StatusCreated},
		{name: "duplicate login", payload: `{"login":"taken","password":"password1"}`, wantStatus: http.StatusConflict},
		{name: "short password", payload: `{"login":"newuser","password":"123"}`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + RegisterRoute,
				Body:   bytes.NewBufferString(t.payload),
			}, testutils.WithHeader("Content-Type", "application/json"))
			s.Require().NoError(err)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()

			s.Equal(t.wantStatus, res.StatusCode)
			if t.wantStatus == http.StatusCreated {
				s.Equal("Bearer jwt-token", res.Header.Get("Authorization"))
			}
		})
	}
}

// TestRegisterMergesGuestCart регистрация с валидным гостевым токеном переносит корзину гостя.
func (s *AuthHandlerTestSuite) TestRegisterMergesGuestCart() {
	var guestUserID int64 = 10
	user := domain.User{ID: 1, Username: "newuser"}

	guestToken, tokenErr := tokens.GenerateUserJWT(guestUserID, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)

	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Username: "newuser", Password: "password1"}).
		Return(&user, "jwt-token", nil)
	s.mockCartService.EXPECT().MergeCarts(gomock.Any(), guestUserID, user.ID).Return(nil)

	payload := fmt.Sprintf(`{"login":"newuser","password":"password1","guest_token":%q}`, guestToken)
	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   bytes.NewBufferString(payload),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusCreated, res.StatusCode)
}

// TestRegisterIgnoresInvalidGuestToken недействительный гостевой токен не ломает регистрацию,
// слияние корзин просто не выполняется (мок MergeCarts не настроен).
func (s *AuthHandlerTestSuite) TestRegisterIgnoresInvalidGuestToken() {
	user := domain.User{ID: 1, Username: "newuser"}

	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Username: "newuser", Password: "password1"}).
		Return(&user, "jwt-token", nil)

	payload := `{"login":"newuser","password":"password1","guest_token":"garbage"}`
	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   bytes.NewBufferString(payload),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusCreated, res.StatusCode)
}

func (s *AuthHandlerTestSuite) TestLogin() {
	user := domain.User{ID: 1, Username: "user", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	s.mockUserService.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Username: "user", Password: "password1"}).
		Return(&user, "jwt-token", nil)
	s.mockUserService.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Username: "user", Password: "wrongpass"}).
		Return(nil, "", domain.ErrPasswordMissMatch)

	cases := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{name: "ok", payload: `{"login":"user","password":"password1"}`, wantStatus: http.StatusOK},
		{name: "wrong password", payload: `{"login":"user","password":"wrongpass"}`, wantStatus: http.StatusUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + LoginRoute,
				Body:   bytes.NewBufferString(t.payload),
			}, testutils.WithHeader("Content-Type", "application/json"))
			s.Require().NoError(err)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()

			s.Equal(t.wantStatus, res.StatusCode)
		})
	}
}

func (s *AuthHandlerTestSuite) TestGuest() {
	guest := domain.User{ID: 10, Username: "guest-abc", Guest: true}
	s.mockUserService.EXPECT().NewGuestSession(gomock.Any()).Return(&guest, "guest-token", nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + GuestRoute,
	})
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusCreated, res.StatusCode)
	s.Equal("Bearer guest-token", res.Header.Get("Authorization"))
}

// TestGuestRejectsAuthorized авторизованный юзер не может открыть еще одну гостевую сессию.
func (s *AuthHandlerTestSuite) TestGuestRejectsAuthorized() {
	token, tokenErr := tokens.GenerateUserJWT(1, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + GuestRoute,
	}, testutils.WithHeader("Authorization", "Bearer "+token))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusUnauthorized, res.StatusCode)
}
