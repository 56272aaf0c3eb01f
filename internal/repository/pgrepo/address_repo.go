package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/pkg/uow"
)

type AddressRepository struct {
	conn uow.DBTX
}

func NewAddressRepository(conn uow.DBTX) *AddressRepository {
	return &AddressRepository{conn: conn}
}

func (r *AddressRepository) FindByID(ctx context.Context, id int64) (*domain.Address, error) {
	var a domain.Address
	err := r.conn.QueryRow(ctx, `
		SELECT id, user_id, label, line1, city FROM addresses WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.City)
	if err != nil {
		return nil, convertErr(err, "finding address by id %d", id)
	}
	return &a, nil
}
