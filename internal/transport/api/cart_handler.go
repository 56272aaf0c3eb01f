package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartSvs CartServicer
}

func NewCartHandler(cartSvs CartServicer) *CartHandler {
	return &CartHandler{
		cartSvs: cartSvs,
	}
}

type CartItemResponse struct {
	VariantID    int64   `json:"variantID"`
	SKU          string  `json:"sku"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage,omitempty"`
	Price        float64 `json:"price"`
	Stock        int32   `json:"stock"`
	Quantity     int32   `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Count int32              `json:"count"`
	Price float64            `json:"price"`
}

// Show GET RouteGroup + CartRoute. Содержимое корзины текущего юзера.
// Отсутствие корзины не ошибка - вернется пустой список.
func (h *CartHandler) Show(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	view, err := h.cartSvs.GetCart(reqCtx, currentUserID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, cartResponseFromView(view.Items, view.Count, view.Price.InexactFloat64()))
}

type CartItemParams struct {
	VariantID int64  `binding:"required,gt=0" json:"variantID"`
	Quantity  *int32 `binding:"required,gte=0" json:"quantity"`
}

// AddItem POST RouteGroup + CartItemsRoute. Добавляет позицию в корзину, повторное добавление
// того же варианта накапливает количество. quantity == 0 удаляет позицию.
func (h *CartHandler) AddItem(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params CartItemParams
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

	item, err := h.cartSvs.AddItem(reqCtx, currentUserID, params.VariantID, *params.Quantity)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if item == nil {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"variantID": item.VariantID,
		"quantity":  item.Quantity,
	})
}

type CartItemUpdateParams struct {
	Quantity *int32 `binding:"required,gte=0" json:"quantity"`
}

// UpdateItem PUT RouteGroup + CartItemRoute. Заменяет количество позиции на переданное.
// В отличие от AddItem количество не накапливается, а позиция должна существовать.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	variantID, ok := parseIDParam(c, "variantID")
	if !ok {
		return
	}

	var params CartItemUpdateParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	item, err := h.cartSvs.UpdateItem(reqCtx, currentUserID, variantID, *params.Quantity)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if item == nil {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variantID": item.VariantID,
		"quantity":  item.Quantity,
	})
}

// DeleteItem DELETE RouteGroup + CartItemRoute.
func (h *CartHandler) DeleteItem(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	variantID, ok := parseIDParam(c, "variantID")
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.cartSvs.DeleteItem(reqCtx, currentUserID, variantID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}

// Clear DELETE RouteGroup + CartRoute. Удаляет все позиции корзины.
func (h *CartHandler) Clear(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.cartSvs.ClearCart(reqCtx, currentUserID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func cartResponseFromView(items []repoargs.CartItemDetail, count int32, price float64) CartResponse {
	response := CartResponse{
		Items: make([]CartItemResponse, len(items)),
		Count: count,
		Price: price,
	}
	for i, item := range items {
		response.Items[i] = CartItemResponse{
			VariantID:    item.VariantID,
			SKU:          item.SKU,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Price:        item.Price.InexactFloat64(),
			Stock:        item.Stock,
			Quantity:     item.Quantity,
		}
	}
	return response
}
