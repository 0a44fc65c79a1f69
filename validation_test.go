package identity_test

import (
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordComplexity(t *testing.T) {
	valid := []string{
		"12345Az_",
		"Sup3rSecret!",
		"Aa1!Aa1!Aa1!Aa1!",
	}
	for _, password := range valid {
		assert.NoError(t, identity.ValidatePasswordComplexity(password), password)
	}

	invalid := []string{
		"Aa1!a2d",           // too short
		"Aa1!Aa1!Aa1!Aa1!x", // too long
		"alllowercase1!",    // no uppercase
		"ALLUPPERCASE1!",    // no lowercase
		"NoDigitsHere!",     // no digit
		"NoSymbolsHere1",    // no symbol
		"",
	}
	for _, password := range invalid {
		assert.Error(t, identity.ValidatePasswordComplexity(password), password)
	}
}

func TestValidateUkrainianPhone(t *testing.T) {
	assert.NoError(t, identity.ValidateUkrainianPhone("+380501234567"))
	assert.NoError(t, identity.ValidateUkrainianPhone("+380671112233"))

	invalid := []string{
		"",
		"0501234567",     // missing prefix
		"+490501234567",  // wrong country
		"+38050123456",   // eight national digits
		"+3805012345678", // ten national digits
		"+38050123456a",  // non-digit
		"380501234567",   // no plus
	}
	for _, phone := range invalid {
		assert.Error(t, identity.ValidateUkrainianPhone(phone), phone)
	}
}

func TestValidateStringEquals(t *testing.T) {
	rule := identity.ValidateStringEquals("Sup3rSecret!")
	assert.NoError(t, rule("Sup3rSecret!"))
	assert.Error(t, rule("sup3rsecret!"))
	assert.Error(t, rule(""))
}

func TestRegisterUserMessageValidate(t *testing.T) {
	valid := identity.RegisterUserMessage{
		Username:        "nina@example.com",
		FullName:        "Nina Example",
		Email:           "nina@example.com",
		Phone:           "+380501234567",
		Password:        "Sup3rSecret!",
		ConfirmPassword: "Sup3rSecret!",
		SelectedRole:    identity.RoleStudent,
	}

	t.Run("valid message passes", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("each field failure surfaces under its form name", func(t *testing.T) {
		msg := identity.RegisterUserMessage{
			Username:        "",
			FullName:        "",
			Email:           "not-an-email",
			Phone:           "12345",
			Password:        "weak",
			ConfirmPassword: "different",
			SelectedRole:    "Ninja",
		}

		err := msg.Validate()
		require.Error(t, err)

		fields := identity.FormatValidationErrorToMap(err)
		for _, key := range []string{
			"username", "full_name", "email", "phone_number",
			"password", "confirm_password", "selected_role",
		} {
			assert.Contains(t, fields, key)
		}
	})

	t.Run("confirmation must match the password", func(t *testing.T) {
		msg := valid
		msg.ConfirmPassword = "Sup3rSecret?"

		err := msg.Validate()
		require.Error(t, err)
		assert.Contains(t, identity.FormatValidationErrorToMap(err), "confirm_password")
	})

	t.Run("role must be one of the registered roles", func(t *testing.T) {
		msg := valid
		msg.SelectedRole = "Superuser"

		err := msg.Validate()
		require.Error(t, err)
		assert.Contains(t, identity.FormatValidationErrorToMap(err), "selected_role")
	})
}

func TestFormatValidationErrorToMap(t *testing.T) {
	assert.Empty(t, identity.FormatValidationErrorToMap(nil))

	fields := identity.FormatValidationErrorToMap(assert.AnError)
	assert.Equal(t, map[string]string{"form": assert.AnError.Error()}, fields)
}
