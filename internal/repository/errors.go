// Package repository maps rows and documents from the stores into typed
// model values. Store-specific failures that callers must tell apart are
// translated into the sentinel errors below; everything else is returned
// wrapped, for the service layer to log.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when an insert violates the unique
	// index on users.email. Concurrent signups for one address race to
	// this error, so callers must treat it like a failed existence check.
	ErrEmailExists = errors.New("email already exists")

	// ErrSkillNotFound is returned when no skill matches the lookup.
	ErrSkillNotFound = errors.New("skill not found")

	// ErrTitleExists is returned when an insert or update violates the
	// unique index on skills.title.
	ErrTitleExists = errors.New("skill title already exists")
)

const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlNoReferenced   = 1452 // ER_NO_REFERENCED_ROW_2
)

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isMissingParent reports whether err is a foreign key violation on insert.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferenced
}
