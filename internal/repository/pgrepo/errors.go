package pgrepo

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-shop/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"
)

// convertErr приводит низкоуровневые ошибки pgx к доменным. pgx.ErrNoRows превращается
// в domain.ErrRecordNotFound, нарушение уникальности - в domain.ErrDuplicateKey,
// все остальное - в domain.ErrUnknown.
func convertErr(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	formatted := fmt.Sprintf(msg, args...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", formatted, domain.ErrRecordNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		errType := domain.ErrUnknown
		if isUniqueViolationErr(pgErr) {
			errType = domain.ErrDuplicateKey
		}
		return fmt.Errorf("[repository/%s] %w: %s", formatted, errType, pgErr.Message)
	}

	return fmt.Errorf("[repository/%s] %w: %s", formatted, domain.ErrUnknown, err.Error())
}

func isUniqueViolationErr(err *pgconn.PgError) bool {
	return err.Code == uniqueViolationCode
}
