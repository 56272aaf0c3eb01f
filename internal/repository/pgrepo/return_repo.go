package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const returnColumns = `id, created_at, updated_at, order_item_id, reason, status`

type ReturnRepository struct {
	conn uow.DBTX
}

func NewReturnRepository(conn uow.DBTX) *ReturnRepository {
	return &ReturnRepository{conn: conn}
}

// Create создает заявку на возврат в статусе PENDING. Уникальный индекс по order_item_id
// гарантирует не больше одной заявки на позицию заказа: повторная вставка вернет
// domain.ErrDuplicateKey.
func (r *ReturnRepository) Create(ctx context.Context, orderItemID int64, reason string) (*domain.Return, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO returns (order_item_id, reason, status)
		VALUES ($1, $2, $3)
		RETURNING `+returnColumns,
		orderItemID, reason, domain.ReturnStatusPending)

	ret, err := scanReturn(row)
	if err != nil {
		return nil, convertErr(err, "creating return for order item %d", orderItemID)
	}
	return ret, nil
}

func (r *ReturnRepository) FindByOrderItemID(ctx context.Context, orderItemID int64) (*domain.Return, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+returnColumns+` FROM returns WHERE order_item_id = $1`, orderItemID)
	ret, err := scanReturn(row)
	if err != nil {
		return nil, convertErr(err, "finding return by order item %d", orderItemID)
	}
	return ret, nil
}

// FindByID возвращает заявку вместе с ценой позиции на момент заказа и владельцем заказа.
// Строка заявки блокируется до конца транзакции: переход статуса и движение баланса
// вычисляются из этого чтения, конкурентные патчи одной заявки сериализуются на блокировке.
func (r *ReturnRepository) FindByID(ctx context.Context, id int64) (*repoargs.ReturnWithOrderItem, error) {
	var res repoargs.ReturnWithOrderItem
	err := r.conn.QueryRow(ctx, `
		SELECT rt.id, rt.created_at, rt.updated_at, rt.order_item_id, rt.reason, rt.status,
		       o.user_id, oi.price_at_order
		FROM returns rt
		JOIN order_items oi ON oi.id = rt.order_item_id
		JOIN orders o ON o.id = oi.order_id
		WHERE rt.id = $1
		FOR UPDATE OF rt`, id).
		Scan(&res.Return.ID, &res.Return.CreatedAt, &res.Return.UpdatedAt, &res.Return.OrderItemID,
			&res.Return.Reason, &res.Return.Status, &res.OrderUserID, &res.PriceAtOrder)
	if err != nil {
		return nil, convertErr(err, "finding return by id %d", id)
	}
	return &res, nil
}

func (r *ReturnRepository) Update(
	ctx context.Context,
	id int64,
	args repoargs.ReturnUpdate,
) (*domain.Return, error) {
	var status *string
	if args.Status != nil {
		s := string(*args.Status)
		status = &s
	}
	row := r.conn.QueryRow(ctx, `
		UPDATE returns
		SET status = COALESCE($2, status), reason = COALESCE($3, reason), updated_at = now()
		WHERE id = $1
		RETURNING `+returnColumns, id, status, args.Reason)

	ret, err := scanReturn(row)
	if err != nil {
		return nil, convertErr(err, "updating return %d", id)
	}
	return ret, nil
}

func scanReturn(row pgx.Row) (*domain.Return, error) {
	var rt domain.Return
	err := row.Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt, &rt.OrderItemID, &rt.Reason, &rt.Status)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &rt, nil
}
