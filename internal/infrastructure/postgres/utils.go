package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isTxConflict verifica si la BD abortó la transacción por conflicto de
// serialización (40001) o deadlock (40P01). El motor reintenta estos casos.
func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
