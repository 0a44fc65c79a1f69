package identity

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor applied to new password hashes.
var BcryptCost = 12

// HashPassword will generate a salted password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty", errors.CategoryValidation)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. Mismatches surface as the generic login failure.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidLogin
		}
		return err
	}
	return nil
}

// BcryptHasher is the default PasswordHasher
type BcryptHasher struct{}

func (BcryptHasher) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

var _ PasswordHasher = BcryptHasher{}
