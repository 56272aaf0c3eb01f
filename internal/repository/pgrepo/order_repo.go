package pgrepo

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, created_at, updated_at, user_id, address_id, order_code, delivery_status`
const orderItemColumns = `id, order_id, variant_id, quantity, price_at_order, delivery_status, return_deadline`

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO orders (user_id, address_id, order_code, delivery_status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+orderColumns,
		args.UserID, args.AddressID, args.OrderCode, domain.DeliveryStatusPending)

	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order with code `%s`", args.OrderCode)
	}
	return order, nil
}

// BatchCreateItems создает позиции заказа одним батч запросом. Результат каждой вставки
// передается в fn по индексу исходного среза.
func (r *OrderRepository) BatchCreateItems(
	ctx context.Context,
	items []repoargs.OrderItemCreate,
	fn repoargs.OrderItemBatchQueryRow,
) {
	batch := new(pgx.Batch)
	for _, item := range items {
		batch.Queue(`
			INSERT INTO order_items (order_id, variant_id, quantity, price_at_order, delivery_status, return_deadline)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+orderItemColumns,
			item.OrderID, item.VariantID, item.Quantity, item.PriceAtOrder,
			domain.DeliveryStatusPending, item.ReturnDeadline)
	}
	results := r.conn.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range items {
		item, err := scanOrderItem(results.QueryRow())
		fn(i, item, convertErr(err, "creating order item for variant %d", items[i].VariantID))
	}
}

// GetByUserID возвращает заказы юзера (без позиций), отсортированные по дате создания по убыванию.
func (r *OrderRepository) GetByUserID(
	ctx context.Context,
	userID int64,
	filter repoargs.OrdersFilter,
) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	args := []any{userID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(` AND delivery_status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "getting orders by userID %d", userID)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting orders by userID %d", userID)
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting orders by userID %d", userID)
	}
	return orders, nil
}

func (r *OrderRepository) GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]domain.OrderItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, convertErr(err, "getting order items for orders %v", orderIDs)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		item, scanErr := scanOrderItem(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting order items for orders %v", orderIDs)
		}
		items = append(items, *item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting order items for orders %v", orderIDs)
	}
	return items, nil
}

// FindItemByID возвращает позицию заказа вместе с id владельца родительского заказа.
func (r *OrderRepository) FindItemByID(ctx context.Context, itemID int64) (*repoargs.OrderItemWithOwner, error) {
	var res repoargs.OrderItemWithOwner
	err := r.conn.QueryRow(ctx, `
		SELECT oi.id, oi.order_id, oi.variant_id, oi.quantity, oi.price_at_order,
		       oi.delivery_status, oi.return_deadline, o.user_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.id = $1`, itemID).
		Scan(&res.Item.ID, &res.Item.OrderID, &res.Item.VariantID, &res.Item.Quantity,
			&res.Item.PriceAtOrder, &res.Item.DeliveryStatus, &res.Item.ReturnDeadline, &res.OrderUserID)
	if err != nil {
		return nil, convertErr(err, "finding order item by id %d", itemID)
	}
	return &res, nil
}

func (r *OrderRepository) UpdateItemDeliveryStatus(
	ctx context.Context,
	itemID int64,
	status domain.DeliveryStatusType,
) (*domain.OrderItem, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE order_items SET delivery_status = $2 WHERE id = $1
		RETURNING `+orderItemColumns, itemID, status)
	item, err := scanOrderItem(row)
	if err != nil {
		return nil, convertErr(err, "updating delivery status of order item %d", itemID)
	}
	return item, nil
}

// LockOrder берет блокировку строки заказа до конца транзакции. Пересчет агрегатного
// статуса доставки выполняется под ней, конкурентные обновления позиций одного заказа
// сериализуются.
func (r *OrderRepository) LockOrder(ctx context.Context, orderID int64) error {
	var id int64
	err := r.conn.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&id)
	if err != nil {
		return convertErr(err, "locking order %d", orderID)
	}
	return nil
}

func (r *OrderRepository) CountItemsNotDelivered(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_items WHERE order_id = $1 AND delivery_status <> $2`,
		orderID, domain.DeliveryStatusDelivered).Scan(&count)
	if err != nil {
		return 0, convertErr(err, "counting undelivered items of order %d", orderID)
	}
	return count, nil
}

func (r *OrderRepository) UpdateOrderDeliveryStatus(
	ctx context.Context,
	orderID int64,
	status domain.DeliveryStatusType,
) error {
	ct, err := r.conn.Exec(ctx, `
		UPDATE orders SET delivery_status = $2, updated_at = now() WHERE id = $1`, orderID, status)
	if err != nil {
		return convertErr(err, "updating delivery status of order %d", orderID)
	}
	if ct.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "updating delivery status of order %d", orderID)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.UserID, &o.AddressID, &o.OrderCode, &o.DeliveryStatus)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &o, nil
}

func scanOrderItem(row pgx.Row) (*domain.OrderItem, error) {
	var i domain.OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.VariantID, &i.Quantity, &i.PriceAtOrder, &i.DeliveryStatus, &i.ReturnDeadline)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &i, nil
}
