package store

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/tinycd/tinycd/common/gerror"
)

// MakeStandardDBError converts driver-level errors into typed errors from the
// standard taxonomy. Errors that don't map to a known condition are wrapped as
// database errors.
func MakeStandardDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return gerror.NewErrNotFound("Resource not found").Wrap(err)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrNotFound {
			return gerror.NewErrNotFound("Resource not found").Wrap(sqliteErr)
		}
	}
	return gerror.NewErrDatabase("Database operation failed", err)
}
