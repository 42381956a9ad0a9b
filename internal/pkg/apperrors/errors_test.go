package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("create post: %w", NewBadRequestError("title is required"))

	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "create post: title is required", err.Error())
}

func TestNewValidationError_CarriesField(t *testing.T) {
	err := NewValidationError("email", "email is required")

	var custom *CustomError
	if assert.True(t, errors.As(err, &custom)) {
		assert.Equal(t, "email", custom.Field())
	}
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
