package repoargs

import "github.com/shopspring/decimal"

type UpsertCartItem struct {
	CartID    int64
	VariantID int64
	Quantity  int32
}

// CartItemDetail строка корзины, обогащенная данными варианта и товара для отображения.
type CartItemDetail struct {
	VariantID    int64
	SKU          string
	ProductName  string
	ProductImage string
	Price        decimal.Decimal
	Stock        int32
	Quantity     int32
}
