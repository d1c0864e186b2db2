package repositories

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/gorm"
	domainerrors "user-directory.backend/internal/domain/errors"
)

const (
	pqUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFailed   = "UNIQUE constraint failed"
	sqlitePrimaryKeyFail = "PRIMARY KEY constraint failed"
)

// translateError maps driver errors onto domain errors. Unique violations
// become *ConflictError, connection failures wrap ErrStoreUnavailable.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		return &domainerrors.ConflictError{Field: conflictField(err), Err: err}
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	msg := err.Error()
	return strings.Contains(msg, sqliteUniqueFailed) || strings.Contains(msg, sqlitePrimaryKeyFail)
}

// conflictField names the user column behind a unique violation, or "".
func conflictField(err error) string {
	detail := err.Error()
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint != "" {
		detail = pqErr.Constraint
	}

	switch {
	case strings.Contains(detail, "username"):
		return "username"
	case strings.Contains(detail, "email"):
		return "email"
	case strings.Contains(detail, "phone"):
		return "phone"
	case strings.Contains(detail, "users_pkey"),
		strings.Contains(detail, "users.id"),
		strings.Contains(detail, "PRIMARY"):
		return "id"
	}
	return ""
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if strings.Contains(err.Error(), "database is closed") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
