// Package repository implements the MySQL record store.  The sentinel
// errors below are shared with the in-memory store so that the service
// layer can translate failures without knowing which store is in use.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a reused user identifier or a second certificate for one application.
var ErrDuplicate = errors.New("duplicate record")

// ErrStale is returned by conditional updates when the stored version no
// longer matches the version the caller read.
var ErrStale = errors.New("stale record")

// isDuplicate reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
