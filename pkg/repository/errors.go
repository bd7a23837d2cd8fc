package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnavailable reports that the record store could not be reached, as
// opposed to a query it rejected.
var ErrUnavailable = errors.New("record store unavailable")

// MapError turns sql.ErrNoRows into notFound and connection-level failures
// into ErrUnavailable. Anything else is returned as is.
func MapError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case unreachable(err):
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

func unreachable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return true
	}
	// Class 08 is connection exception; 57P covers server shutdown.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	return false
}
