package identity

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePasswordComplexity enforces an 8 to 16 character password holding
// at least one uppercase letter, one lowercase letter, one digit, and one
// symbol.
func ValidatePasswordComplexity(value any) error {
	s, _ := value.(string)

	runes := []rune(s)
	if len(runes) < 8 || len(runes) > 16 {
		return errors.New("must be between 8 and 16 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return errors.New("must contain an uppercase letter, a lowercase letter, a digit, and a symbol")
	}

	return nil
}

// ValidateUkrainianPhone accepts only +380 numbers with nine national
// digits.
func ValidateUkrainianPhone(value any) error {
	s, _ := value.(string)

	if !strings.HasPrefix(s, "+380") {
		return errors.New("must start with +380")
	}

	national := s[len("+380"):]
	if len(national) != 9 {
		return errors.New("must have nine digits after +380")
	}
	for _, r := range national {
		if r < '0' || r > '9' {
			return errors.New("must contain only digits after +380")
		}
	}

	num, err := phonenumbers.Parse(s, "UA")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return errors.New("must be a valid Ukrainian phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map suitable for form rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
