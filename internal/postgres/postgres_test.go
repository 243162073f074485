package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hojin-choi/oreum/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	merchantUID := &pgconn.PgError{Code: "23505", ConstraintName: "orders_merchant_uid_key"}

	// The duplicate-checkout guard: a 23505 on the merchant_uid index.
	assert.True(t, isUniqueViolation(merchantUID, "orders_merchant_uid_key"))

	// Empty constraint matches any unique violation.
	assert.True(t, isUniqueViolation(merchantUID, ""))

	// A unique violation on a different constraint does not match.
	assert.False(t, isUniqueViolation(merchantUID, "users_email_key"))

	// Other SQL states are not unique violations.
	notNull := &pgconn.PgError{Code: "23502", ConstraintName: "orders_merchant_uid_key"}
	assert.False(t, isUniqueViolation(notNull, "orders_merchant_uid_key"))

	// Non-postgres errors never match.
	assert.False(t, isUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, isUniqueViolation(nil, ""))

	// Drivers wrap; the check must see through fmt.Errorf chains.
	wrapped := fmt.Errorf("failed to insert order: %w", merchantUID)
	assert.True(t, isUniqueViolation(wrapped, "orders_merchant_uid_key"))
}

func TestDuplicateOrderErrorMapsToConflict(t *testing.T) {
	// The error InsertOrder builds from a merchant_uid violation must carry
	// the conflict code so the handler can answer with the existing number.
	err := &domain.DuplicateOrderError{OrderNumber: "ORD-20260830-001"}

	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	var dup *domain.DuplicateOrderError
	assert.True(t, errors.As(error(err), &dup))
	assert.Equal(t, "ORD-20260830-001", dup.OrderNumber)
}
