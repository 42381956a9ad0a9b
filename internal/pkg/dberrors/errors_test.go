package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	wrapped := fmt.Errorf("insert user: %w", pgErr)

	assert.True(t, IsDuplicateConstraintError(wrapped, "users_email_key"))
	assert.True(t, IsDuplicateConstraintError(wrapped, ""))
	assert.False(t, IsDuplicateConstraintError(wrapped, "posts_pkey"))
	assert.False(t, IsDuplicateConstraintError(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsDuplicateConstraintError(errors.New("boom"), ""))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("find: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("timeout")))
}
