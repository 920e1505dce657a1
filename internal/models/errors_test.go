package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewInternalError(errors.New("boom"))
	assert.Equal(t, "Internal server error: boom", err.Error())
	assert.Equal(t, "Message with ID 7 not found", NewNotFoundError("Message", 7).Error())
}

func TestHasCodeUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("creating user: %w", NewIntegrityError("Username already taken", nil))

	assert.True(t, IsIntegrity(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, HasCode(errors.New("plain"), CodeIntegrity))
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		NewNotFoundError("User", 1):       fiber.StatusNotFound,
		NewValidationError("bad"):         fiber.StatusBadRequest,
		NewUnauthorizedError("no"):        fiber.StatusUnauthorized,
		NewForbiddenError("nope"):         fiber.StatusForbidden,
		NewIntegrityError("dup", nil):     fiber.StatusConflict,
		NewInternalError(errors.New("x")): fiber.StatusInternalServerError,
		errors.New("unknown"):             fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}
