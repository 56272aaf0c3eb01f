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

const defaultOrdersLimit = 50

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

type OrderItemResponse struct {
	ID             int64                     `json:"ID"`
	VariantID      int64                     `json:"variantID"`
	Quantity       int32                     `json:"quantity"`
	PriceAtOrder   float64                   `json:"priceAtOrder"`
	DeliveryStatus domain.DeliveryStatusType `json:"deliveryStatus"`
	ReturnDeadline time.Time                 `json:"returnDeadline"`
}

type OrderResponse struct {
	ID             int64                     `json:"ID"`
	OrderCode      string                    `json:"number"`
	AddressID      int64                     `json:"addressID"`
	DeliveryStatus domain.DeliveryStatusType `json:"deliveryStatus"`
	CreatedAt      time.Time                 `json:"createdAt"`
	Items          []OrderItemResponse       `json:"items"`
}

type OrderCreateParams struct {
	AddressID int64 `binding:"required,gt=0" json:"addressID"`
}

// Create POST RouteGroup + OrdersRoute. Чекаут: корзина текущего юзера целиком превращается
// в заказ. Остаток по каждому варианту списывается в одной транзакции, нехватка по любой
// позиции отменяет заказ целиком и возвращает 400.
func (o *OrdersHandler) Create(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params OrderCreateParams
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

	order, createErr := o.orderSvs.Create(reqCtx, currentUserID, params.AddressID)
	if createErr != nil {
		abortWithServiceError(c, createErr)
		return
	}

	c.JSON(http.StatusCreated, orderResponseFromDomain(order))
}

type OrdersIndexParams struct {
	Limit  uint    `binding:"omitempty,lte=200" form:"limit"`
	Offset uint    `binding:"omitempty"         form:"offset"`
	Status *string `binding:"omitempty"         form:"status"`
}

// Index GET RouteGroup + OrdersRoute. История заказов текущего юзера, новые первыми.
// Пустая история не ошибка - вернется пустой список.
func (o *OrdersHandler) Index(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params OrdersIndexParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	filter := repoargs.OrdersFilter{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if filter.Limit == 0 {
		filter.Limit = defaultOrdersLimit
	}
	if params.Status != nil {
		status := domain.DeliveryStatusType(*params.Status)
		if !status.Valid() {
			_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid status filter")).
				SetType(gin.ErrorTypePublic)
			return
		}
		filter.Status = &status
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetByUserID(reqCtx, currentUserID, filter)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = orderResponseFromDomain(&orders[i])
	}
	c.JSON(http.StatusOK, response)
}

type DeliveryStatusParams struct {
	Status string `binding:"required" json:"status"`
}

// UpdateItemDeliveryStatus PATCH RouteGroup + OrderItemDeliveryRoute. Перевод позиции заказа
// по цепочке PENDING -> SHIPPED -> DELIVERED. Когда последняя позиция заказа доставлена,
// заказ целиком помечается доставленным.
func (o *OrdersHandler) UpdateItemDeliveryStatus(c *gin.Context) {
	itemID, ok := parseIDParam(c, "itemID")
	if !ok {
		return
	}

	var params DeliveryStatusParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	status := domain.DeliveryStatusType(params.Status)
	if !status.Valid() {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid delivery status")).
			SetType(gin.ErrorTypePublic)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	item, err := o.orderSvs.UpdateItemDeliveryStatus(reqCtx, itemID, status)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderItemResponseFromDomain(item))
}

func orderResponseFromDomain(order *domain.Order) OrderResponse {
	response := OrderResponse{
		ID:             order.ID,
		OrderCode:      order.OrderCode,
		AddressID:      order.AddressID,
		DeliveryStatus: order.DeliveryStatus,
		CreatedAt:      order.CreatedAt,
		Items:          make([]OrderItemResponse, len(order.Items)),
	}
	for i := range order.Items {
		response.Items[i] = orderItemResponseFromDomain(&order.Items[i])
	}
	return response
}

func orderItemResponseFromDomain(item *domain.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:             item.ID,
		VariantID:      item.VariantID,
		Quantity:       item.Quantity,
		PriceAtOrder:   item.PriceAtOrder.InexactFloat64(),
		DeliveryStatus: item.DeliveryStatus,
		ReturnDeadline: item.ReturnDeadline,
	}
}
