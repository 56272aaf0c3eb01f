package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/fsdevblog/groph-shop/internal/repository/repoargs"
	"github.com/fsdevblog/groph-shop/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, created_at, updated_at, username, password, balance, guest`

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

func (r *UserRepository) CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO users (username, password, guest)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		args.Username, args.Password, args.Guest)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user `%s`", args.Username)
	}
	return user, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", id)
	}
	return user, nil
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by username `%s`", username)
	}
	return user, nil
}

// CreditBalance увеличивает баланс юзера на amount и возвращает обновленного юзера.
func (r *UserRepository) CreditBalance(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, amount)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "crediting balance for user %d", userID)
	}
	return user, nil
}

// DebitBalanceClamped списывает amount с баланса юзера, не опуская баланс ниже нуля.
// Клампинг выполняется самим UPDATE, чтобы инвариант balance >= 0 не зависел от
// порядка конкурентных списаний.
func (r *UserRepository) DebitBalanceClamped(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE users SET balance = GREATEST(balance - $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, amount)

	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "debiting balance for user %d", userID)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.Password, &u.Balance, &u.Guest)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &u, nil
}
