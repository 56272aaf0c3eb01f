package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/pkg/uow"
)

type VariantRepository struct {
	conn uow.DBTX
}

func NewVariantRepository(conn uow.DBTX) *VariantRepository {
	return &VariantRepository{conn: conn}
}

func (r *VariantRepository) FindByID(ctx context.Context, id int64) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := r.conn.QueryRow(ctx, `
		SELECT id, product_id, sku, price, stock FROM product_variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock)
	if err != nil {
		return nil, convertErr(err, "finding variant by id %d", id)
	}
	return &v, nil
}

// DecrementStock выполняет условное списание остатка: stock уменьшается на qty только если
// остатка хватает. Проверка и списание - одно UPDATE выражение, поэтому два конкурентных
// чекаута за последнюю единицу не могут пройти оба.
//
// Возвращает *domain.InsufficientStockError если остатка не хватает
// и domain.ErrRecordNotFound если варианта не существует.
func (r *VariantRepository) DecrementStock(ctx context.Context, variantID int64, qty int32) error {
	ct, err := r.conn.Exec(ctx, `
		UPDATE product_variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		variantID, qty)
	if err != nil {
		return convertErr(err, "decrementing stock for variant %d", variantID)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	// Либо варианта нет, либо остатка не хватило - различаем и называем остаток.
	var stock int32
	if scanErr := r.conn.QueryRow(ctx, `SELECT stock FROM product_variants WHERE id = $1`, variantID).
		Scan(&stock); scanErr != nil {
		return convertErr(scanErr, "finding variant by id %d", variantID)
	}
	return domain.NewInsufficientStockError(variantID, qty, stock)
}
