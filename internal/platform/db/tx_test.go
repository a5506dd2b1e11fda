package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueConstraintMatchesOnlyUniqueViolations(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "bills_bill_number_key"}
	name, ok := UniqueConstraint(dup)
	assert.True(t, ok)
	assert.Equal(t, "bills_bill_number_key", name)
	_, ok = UniqueConstraint(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueConstraint(errors.New("boom"))
	assert.False(t, ok)
	_, ok = UniqueConstraint(nil)
	assert.False(t, ok)
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(fmt.Errorf("update stock: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
}

func TestUniqueConstraintUnwraps(t *testing.T) {
	name, ok := UniqueConstraint(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bills_idempotency_key_key"}))
	assert.True(t, ok)
	assert.Equal(t, "bills_idempotency_key_key", name)

	_, ok = UniqueConstraint(&pgconn.PgError{Code: "40001"})
	assert.False(t, ok)
}
