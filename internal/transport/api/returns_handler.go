package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReturnsHandler struct {
	returnSvs ReturnServicer
}

func NewReturnsHandler(returnSvs ReturnServicer) *ReturnsHandler {
	return &ReturnsHandler{
		returnSvs: returnSvs,
	}
}

type ReturnResponse struct {
	ID          int64                   `json:"ID"`
	OrderItemID int64                   `json:"orderItemID"`
	Reason      string                  `json:"reason"`
	Status      domain.ReturnStatusType `json:"status"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

type ReturnCreateParams struct {
	OrderItemID int64  `binding:"required,gt=0"            json:"orderItemID"`
	Reason      string `binding:"required,max_bytes=1000"  json:"reason"`
}

// Create POST RouteGroup + ReturnsRoute. Заявка на возврат позиции заказа. Позиция должна
// принадлежать текущему юзеру, срок возврата не должен быть истекшим, и на позицию может
// существовать не более одной заявки.
func (h *ReturnsHandler) Create(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params ReturnCreateParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	ret, err := h.returnSvs.CreateReturn(reqCtx, params.OrderItemID, currentUserID, params.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, returnResponseFromDomain(ret))
}

type ReturnUpdateParams struct {
	Status *string `binding:"omitempty"                json:"status"`
	Reason *string `binding:"omitempty,max_bytes=1000" json:"reason"`
}

// Update PATCH RouteGroup + ReturnRoute. Частичное обновление заявки. Переход статуса
// в REFUNDED зачисляет стоимость позиции на баланс владельца заказа, обратный переход
// списывает её же, не опуская баланс ниже нуля.
func (h *ReturnsHandler) Update(c *gin.Context) {
	returnID, ok := parseIDParam(c, "returnID")
	if !ok {
		return
	}

	var params ReturnUpdateParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	patch := repoargs.ReturnUpdate{Reason: params.Reason}
	if params.Status != nil {
		status := domain.ReturnStatusType(*params.Status)
		patch.Status = &status
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	ret, err := h.returnSvs.UpdateReturn(reqCtx, returnID, patch)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, returnResponseFromDomain(ret))
}

func returnResponseFromDomain(ret *domain.Return) ReturnResponse {
	return ReturnResponse{
		ID:          ret.ID,
		OrderItemID: ret.OrderItemID,
		Reason:      ret.Reason,
		Status:      ret.Status,
		CreatedAt:   ret.CreatedAt,
		UpdatedAt:   ret.UpdatedAt,
	}
}
