package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/logger"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-shop/internal/transport/api/testutils"
	"github.com/fsdevblog/groph-shop/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ReturnsHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockReturnService *mocks.MockReturnServicer
	jwtSecret         []byte
}

func TestReturnsHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReturnsHandlerTestSuite))
}

func (s *ReturnsHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockReturnService = mocks.NewMockReturnServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, routerErr := New(RouterArgs{
		Logger:        logger.New(os.Stdout),
		ReturnService: s.mockReturnService,
		JWTSecretKey:  s.jwtSecret,
	})
	s.Require().NoError(routerErr)
	s.router = router
}

func (s *ReturnsHandlerTestSuite) authHeader(userID int64) func(*testutils.RequestOptions) {
	token, err := tokens.GenerateUserJWT(userID, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	return testutils.WithHeader("Authorization", fmt.Sprintf("Bearer %s", token))
}

func (s *ReturnsHandlerTestSuite) TestCreate() {
	var userID int64 = 1

	ret := domain.Return{ID: 1, OrderItemID: 100, Reason: "defective", Status: domain.ReturnStatusPending}

	s.mockReturnService.EXPECT().
		CreateReturn(gomock.Any(), int64(100), userID, "defective").
		Return(&ret, nil)
	// Повторная заявка на ту же позицию.
	s.mockReturnService.EXPECT().
		CreateReturn(gomock.Any(), int64(101), userID, "again").
		Return(nil, domain.ErrReturnAlreadyExists)
	// Срок возврата истек.
	s.mockReturnService.EXPECT().
		CreateReturn(gomock.Any(), int64(102), userID, "late").
		Return(nil, domain.ErrReturnWindowExpired)
	// Чужая позиция.
	s.mockReturnService.EXPECT().
		CreateReturn(gomock.Any(), int64(103), userID, "not mine").
		Return(nil, domain.ErrOwnerConflict)

	cases := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{name: "ok", payload: `{"orderItemID":100,"reason":"defective"}`, wantStatus: http.StatusCreated},
		{name: "duplicate", payload: `{"orderItemID":101,"reason":"again"}`, wantStatus: http.StatusConflict},
		{name: "window expired", payload: `{"orderItemID":102,"reason":"late"}`, wantStatus: http.StatusGone},
		{name: "foreign item", payload: `{"orderItemID":103,"reason":"not mine"}`, wantStatus: http.StatusForbidden},
		{name: "missing reason", payload: `{"orderItemID":100}`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + ReturnsRoute,
				Body:   bytes.NewBufferString(t.payload),
			}, s.authHeader(userID), testutils.WithHeader("Content-Type", "application/json"))
			s.Require().NoError(err)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()

			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantStatus == http.StatusCreated {
				var body ReturnResponse
				s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
				s.Equal(domain.ReturnStatusPending, body.Status)
			}
		})
	}
}

func (s *ReturnsHandlerTestSuite) TestCreateReasonTooLong() {
	var userID int64 = 1

	// max_bytes считает байты, а не руны: многобайтовые символы упираются в лимит раньше.
	longReason := testutils.GenerateOverBytesUnderRunes(300)
	payload := fmt.Sprintf(`{"orderItemID":100,"reason":%q}`, longReason)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + ReturnsRoute,
		Body:   bytes.NewBufferString(payload),
	}, s.authHeader(userID), testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusUnprocessableEntity, res.StatusCode)
}

func (s *ReturnsHandlerTestSuite) TestUpdate() {
	var userID int64 = 1
	refunded := domain.ReturnStatusRefunded

	s.mockReturnService.EXPECT().
		UpdateReturn(gomock.Any(), int64(1), repoargs.ReturnUpdate{Status: &refunded}).
		Return(&domain.Return{ID: 1, OrderItemID: 100, Status: refunded}, nil)
	s.mockReturnService.EXPECT().
		UpdateReturn(gomock.Any(), int64(2), gomock.Any()).
		Return(nil, domain.ErrInvalidReturnStatus)
	s.mockReturnService.EXPECT().
		UpdateReturn(gomock.Any(), int64(404), gomock.Any()).
		Return(nil, domain.ErrRecordNotFound)

	cases := []struct {
		name       string
		url        string
		payload    string
		wantStatus int
	}{
		{name: "refund", url: "/api/user/returns/1", payload: `{"status":"REFUNDED"}`, wantStatus: http.StatusOK},
		{name: "bogus status", url: "/api/user/returns/2", payload: `{"status":"SHREDDED"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown return", url: "/api/user/returns/404", payload: `{"status":"REFUNDED"}`, wantStatus: http.StatusNotFound},
		{name: "bad id", url: "/api/user/returns/abc", payload: `{"status":"REFUNDED"}`, wantStatus: http.StatusBadRequest},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPatch,
				URL:    t.url,
				Body:   bytes.NewBufferString(t.payload),
			}, s.authHeader(userID), testutils.WithHeader("Content-Type", "application/json"))
			s.Require().NoError(err)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()

			s.Equal(t.wantStatus, res.StatusCode)
		})
	}
}
