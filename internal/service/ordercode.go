package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderCodeSuffixLength = 8

// generateOrderCode собирает человекочитаемый код заказа: временной префикс по UTC
// плюс случайный суффикс. Уникальность обеспечивается случайностью (best-effort),
// жесткую гарантию дает уникальный индекс по order_code.
func generateOrderCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:orderCodeSuffixLength]
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102150405"), suffix)
}
