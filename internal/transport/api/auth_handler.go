package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/service"
	"github.com/fsdevblog/groph-shop/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	userService  UserServicer
	cartService  CartServicer
	jwtSecretKey []byte
}

func NewAuthHandler(userService UserServicer, cartService CartServicer, jwtSecretKey []byte) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		cartService:  cartService,
		jwtSecretKey: jwtSecretKey,
	}
}

type UserRegisterParams struct {
	Username string `binding:"required,min=1,max=30"  form:"login"    json:"login"`
	Password string `binding:"required,min=6,max=255" form:"password" json:"password"`
	// GuestToken токен анонимной сессии. Если передан и действителен, корзина гостя
	// будет слита в корзину нового юзера.
	GuestToken string `binding:"omitempty" form:"guest_token" json:"guest_token"`
}

type UserResponse struct {
	ID        int64     `json:"ID"`
	Username  string    `json:"login"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Register POST RouteGroup + RegisterRoute. Регистрирует пользователя и аутентифицирует его.
func (h *AuthHandler) Register(c *gin.Context) {
	var params UserRegisterParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, jwtToken, createErr := h.userService.Register(ctx, service.RegisterUserArgs{
		Username: params.Username,
		Password: params.Password,
	})
	if createErr != nil {
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			_ = c.AbortWithError(http.StatusConflict, errors.New("user with this login already exists")).
				SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, createErr).
			SetType(gin.ErrorTypePrivate)
		return
	}

	h.mergeGuestCart(ctx, c, params.GuestToken, user.ID)

	c.Header("Authorization", "Bearer "+jwtToken)
	c.AbortWithStatus(http.StatusCreated)
}

type UserLoginParams struct {
	Username   string `binding:"required,min=1,max=30"  json:"login"`
	Password   string `binding:"required,min=6,max=255" json:"password"`
	GuestToken string `binding:"omitempty"              json:"guest_token"`
}

// Login POST RouteGroup + LoginRoute. Аутентификация по паре логин/пароль.
func (h *AuthHandler) Login(c *gin.Context) {
	var params UserLoginParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, token, err := h.userService.Login(ctx, service.LoginUserArgs{
		Username: params.Username,
		Password: params.Password,
	})

	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, domain.ErrPasswordMissMatch) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	h.mergeGuestCart(ctx, c, params.GuestToken, user.ID)

	c.Header("Authorization", "Bearer "+token)

	c.JSON(http.StatusOK, gin.H{"user": UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Balance:   user.Balance.InexactFloat64(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}})
}

// Guest POST RouteGroup + GuestRoute. Создает анонимную сессию: гостю выдается токен,
// с которым он может наполнять корзину до регистрации.
func (h *AuthHandler) Guest(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	_, token, err := h.userService.NewGuestSession(ctx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.AbortWithStatus(http.StatusCreated)
}

// mergeGuestCart сливает корзину гостя в корзину юзера, если передан действительный гостевой
// токен. Недействительный токен не ломает вход: юзер аутентифицирован, просто корзина гостя
// не переносится. Ошибка слияния логируется, но тоже не прерывает вход.
func (h *AuthHandler) mergeGuestCart(ctx context.Context, c *gin.Context, guestToken string, userID int64) {
	if guestToken == "" {
		return
	}

	token, tokenErr := tokens.ValidateUserJWT(guestToken, h.jwtSecretKey)
	if tokenErr != nil {
		_ = c.Error(tokenErr).SetType(gin.ErrorTypePrivate)
		return
	}
	claims, ok := token.Claims.(*tokens.UserClaims)
	if !ok {
		return
	}

	if mergeErr := h.cartService.MergeCarts(ctx, claims.ID, userID); mergeErr != nil {
		_ = c.Error(mergeErr).SetType(gin.ErrorTypePrivate)
	}
}
