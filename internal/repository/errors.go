// Package repository defines the persistence layer for users and documents.
// Two implementations exist for each store: a MySQL one built on
// database/sql and an in-memory one used by tests and the "memory" store
// driver.  Both report the sentinel errors below so higher layers can
// tell the failure scenarios apart.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Services translate it into their own not-found error.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert would violate the unique email
// index.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
