package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ada@x.com' for key 'uq_users_email'"}

	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(fmt.Errorf("exec: %w", dup)))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicateKey(errors.New("Error 1062: looks similar")))
	assert.False(t, isDuplicateKey(nil))
}

func TestIsMissingParent(t *testing.T) {
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, isMissingParent(fk))
	assert.True(t, isMissingParent(fmt.Errorf("insert module: %w", fk)))
	assert.False(t, isMissingParent(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isMissingParent(nil))
}

func TestSkillSortValid(t *testing.T) {
	assert.True(t, SortByTitle.Valid())
	assert.True(t, SortByCreatedAt.Valid())
	assert.False(t, SkillSort("title; DROP TABLE skills").Valid())
	assert.False(t, SkillSort("").Valid())
}
