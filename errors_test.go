package identity_test

import (
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Run("invalid login is authentication, not role mismatch", func(t *testing.T) {
		assert.True(t, identity.IsAuthenticationError(identity.ErrInvalidLogin))
		assert.False(t, identity.IsRoleMismatchError(identity.ErrInvalidLogin))
	})

	t.Run("role mismatch is both", func(t *testing.T) {
		assert.True(t, identity.IsRoleMismatchError(identity.ErrRoleMismatch))
		assert.True(t, identity.IsAuthenticationError(identity.ErrRoleMismatch))
	})

	t.Run("token errors stay distinct", func(t *testing.T) {
		assert.True(t, identity.IsTokenExpiredError(identity.ErrTokenExpired))
		assert.False(t, identity.IsTokenMalformedError(identity.ErrTokenExpired))

		assert.True(t, identity.IsTokenMalformedError(identity.ErrTokenMalformed))
		assert.False(t, identity.IsTokenExpiredError(identity.ErrTokenMalformed))
	})

	t.Run("stale update is a conflict, not validation", func(t *testing.T) {
		assert.True(t, identity.IsStaleUpdateError(identity.ErrStaleUpdate))
		assert.False(t, identity.IsValidationError(identity.ErrStaleUpdate))
	})

	t.Run("helpers tolerate nil and foreign errors", func(t *testing.T) {
		assert.False(t, identity.IsAuthenticationError(nil))
		assert.False(t, identity.IsValidationError(assert.AnError))
		assert.False(t, identity.IsNotFoundError(assert.AnError))
	})
}

func TestValidationFields(t *testing.T) {
	err := identity.NewValidationError(map[string]string{
		"username": "must not be blank",
	})
	assert.True(t, identity.IsValidationError(err))
	assert.Equal(t, map[string]string{"username": "must not be blank"}, identity.ValidationFields(err))

	assert.Nil(t, identity.ValidationFields(assert.AnError))
	assert.Nil(t, identity.ValidationFields(nil))
}
