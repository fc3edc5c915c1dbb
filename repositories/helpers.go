package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// pgError unwraps a driver error. ok is false for anything that did not come
// from the server.
func pgError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := pgError(err)
	return ok && pqErr.Code == pgerrcode.UniqueViolation && pqErr.Constraint == constraint
}

func isForeignKeyViolation(err error, constraint string) bool {
	pqErr, ok := pgError(err)
	if !ok || pqErr.Code != pgerrcode.ForeignKeyViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func uuidArray(ids []uuid.UUID) interface{} {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return pq.Array(values)
}
