package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const cartColumns = `id, created_at, updated_at, user_id`
const cartItemColumns = `id, cart_id, variant_id, quantity`

type CartRepository struct {
	conn uow.DBTX
}

func NewCartRepository(conn uow.DBTX) *CartRepository {
	return &CartRepository{conn: conn}
}

func (r *CartRepository) CreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO carts (user_id) VALUES ($1) RETURNING `+cartColumns, userID)
	cart, err := scanCart(row)
	if err != nil {
		return nil, convertErr(err, "creating cart for user %d", userID)
	}
	return cart, nil
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
	cart, err := scanCart(row)
	if err != nil {
		return nil, convertErr(err, "finding cart by userID %d", userID)
	}
	return cart, nil
}

// ReassignOwner переводит корзину на другого юзера. Если у нового владельца уже есть корзина,
// сработает уникальный индекс по user_id и вернется domain.ErrDuplicateKey.
func (r *CartRepository) ReassignOwner(ctx context.Context, cartID, userID int64) error {
	ct, err := r.conn.Exec(ctx, `
		UPDATE carts SET user_id = $2, updated_at = now() WHERE id = $1`, cartID, userID)
	if err != nil {
		return convertErr(err, "reassigning cart %d to user %d", cartID, userID)
	}
	if ct.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "reassigning cart %d to user %d", cartID, userID)
	}
	return nil
}

func (r *CartRepository) DeleteCart(ctx context.Context, cartID int64) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return convertErr(err, "deleting cart %d", cartID)
	}
	return nil
}

// UpsertItem создает позицию корзины или заменяет количество существующей на args.Quantity.
// Семантику накопления (прибавить к текущему) реализует сервисный слой.
func (r *CartRepository) UpsertItem(
	ctx context.Context,
	args repoargs.UpsertCartItem,
) (*domain.CartItem, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING `+cartItemColumns,
		args.CartID, args.VariantID, args.Quantity)

	item, err := scanCartItem(row)
	if err != nil {
		return nil, convertErr(err, "upserting cart item for variant %d", args.VariantID)
	}
	return item, nil
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, variantID int64) (*domain.CartItem, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 AND variant_id = $2`,
		cartID, variantID)
	item, err := scanCartItem(row)
	if err != nil {
		return nil, convertErr(err, "finding cart item for variant %d", variantID)
	}
	return item, nil
}

func (r *CartRepository) GetItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, convertErr(err, "getting cart items for cart %d", cartID)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, scanErr := scanCartItem(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting cart items for cart %d", cartID)
		}
		items = append(items, *item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting cart items for cart %d", cartID)
	}
	return items, nil
}

// GetItemDetails возвращает строки корзины вместе со сводкой варианта и товара для отображения.
func (r *CartRepository) GetItemDetails(
	ctx context.Context,
	cartID int64,
) ([]repoargs.CartItemDetail, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT ci.variant_id, v.sku, p.name, p.image, v.price, v.stock, ci.quantity
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, convertErr(err, "getting cart item details for cart %d", cartID)
	}
	defer rows.Close()

	var details []repoargs.CartItemDetail
	for rows.Next() {
		var d repoargs.CartItemDetail
		scanErr := rows.Scan(&d.VariantID, &d.SKU, &d.ProductName, &d.ProductImage, &d.Price, &d.Stock, &d.Quantity)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting cart item details for cart %d", cartID)
		}
		details = append(details, d)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting cart item details for cart %d", cartID)
	}
	return details, nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID, variantID int64) error {
	ct, err := r.conn.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID)
	if err != nil {
		return convertErr(err, "deleting cart item for variant %d", variantID)
	}
	if ct.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "deleting cart item for variant %d", variantID)
	}
	return nil
}

func (r *CartRepository) DeleteAllItems(ctx context.Context, cartID int64) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return convertErr(err, "deleting all items of cart %d", cartID)
	}
	return nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.UserID); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &c, nil
}

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	var i domain.CartItem
	if err := row.Scan(&i.ID, &i.CartID, &i.VariantID, &i.Quantity); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &i, nil
}
