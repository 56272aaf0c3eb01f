package repoargs

import (
	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/shopspring/decimal"
)

// ReturnUpdate патч заявки на возврат. nil поля не изменяются.
type ReturnUpdate struct {
	Status *domain.ReturnStatusType
	Reason *string
}

// ReturnWithOrderItem заявка на возврат вместе с данными позиции заказа,
// которые нужны для начисления/списания баланса при смене статуса.
type ReturnWithOrderItem struct {
	Return       domain.Return
	OrderUserID  int64
	PriceAtOrder decimal.Decimal
}
