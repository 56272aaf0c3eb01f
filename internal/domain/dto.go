package domain

type DeliveryStatusType string

const (
	DeliveryStatusPending   DeliveryStatusType = "PENDING"
	DeliveryStatusShipped   DeliveryStatusType = "SHIPPED"
	DeliveryStatusDelivered DeliveryStatusType = "DELIVERED"
)

// Valid проверяет что статус доставки входит в список поддерживаемых.
func (d DeliveryStatusType) Valid() bool {
	switch d {
	case DeliveryStatusPending, DeliveryStatusShipped, DeliveryStatusDelivered:
		return true
	}
	return false
}

type ReturnStatusType string

const (
	ReturnStatusPending  ReturnStatusType = "PENDING"
	ReturnStatusRefunded ReturnStatusType = "REFUNDED"
	ReturnStatusDenied   ReturnStatusType = "DENIED"
)

// Valid проверяет что статус возврата входит в список поддерживаемых.
func (r ReturnStatusType) Valid() bool {
	switch r {
	case ReturnStatusPending, ReturnStatusRefunded, ReturnStatusDenied:
		return true
	}
	return false
}
