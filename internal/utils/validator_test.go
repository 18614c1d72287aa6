package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))

	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("no-at-sign"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("user@example"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Password1"))
	assert.True(t, ValidatePassword("aB3defgh"))

	assert.False(t, ValidatePassword("Pass1"))
	assert.False(t, ValidatePassword("password1"))
	assert.False(t, ValidatePassword("PASSWORD1"))
	assert.False(t, ValidatePassword("Passwords"))
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("jane_doe"))
	assert.True(t, ValidateUsername("j.d-99"))

	assert.False(t, ValidateUsername("ab"))
	assert.False(t, ValidateUsername("has space"))
	assert.False(t, ValidateUsername("emoji😀name"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", SanitizeEmail("  User@Example.COM "))
}
