package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

func getUserIDFromContext(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CurrentUserIDKey)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid "+name+" param")).
			SetType(gin.ErrorTypePublic)
		return 0, false
	}
	return id, true
}

// abortWithServiceError транслирует доменную ошибку в http статус согласно таксономии:
// валидация и нехватка остатка - 400, чужой ресурс - 403, отсутствие записи - 404,
// повторная заявка на возврат - 409, истекший срок возврата - 410, остальное - 500
// с приватными деталями.
func abortWithServiceError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		_ = c.AbortWithError(http.StatusBadRequest, stockErr).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidDeliveryState),
		errors.Is(err, domain.ErrInvalidReturnStatus):
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrOwnerConflict):
		c.AbortWithStatus(http.StatusForbidden)
	case errors.Is(err, domain.ErrRecordNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	case errors.Is(err, domain.ErrReturnAlreadyExists):
		c.AbortWithStatus(http.StatusConflict)
	case errors.Is(err, domain.ErrReturnWindowExpired):
		c.AbortWithStatus(http.StatusGone)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}
