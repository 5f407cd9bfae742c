package mysql

import (
	"errors"
	"fmt"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateEntry(t *testing.T) {
	dup := &driver.MySQLError{Number: DuplicateEntry, Message: "Duplicate entry 'k' for key 'uq_orders_idempotency_key'"}

	assert.True(t, IsDuplicateEntry(dup))
	assert.True(t, IsDuplicateEntry(fmt.Errorf("inserting order: %w", dup)))
	assert.False(t, IsDuplicateEntry(&driver.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateEntry(errors.New("duplicate")))
}
