package auth

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost     = 12
	minPasswordLen = 8
	minCharClasses = 3
)

var (
	// ErrPasswordLength is returned when the password is shorter than eight characters.
	ErrPasswordLength = errors.New("password must be at least 8 characters long")
	// ErrPasswordComplexity is returned when the password mixes too few character classes.
	ErrPasswordComplexity = errors.New("password needs at least three of: uppercase, lowercase, digits, symbols")
)

// HashPassword derives a bcrypt hash from the plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var charClasses = []func(rune) bool{
	unicode.IsUpper,
	unicode.IsLower,
	unicode.IsNumber,
	isSymbol,
}

func isSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// ValidatePassword enforces the account password policy: a minimum length of
// eight characters mixing at least three of the four character classes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return ErrPasswordLength
	}

	classes := 0
	for _, class := range charClasses {
		for _, r := range password {
			if class(r) {
				classes++
				break
			}
		}
	}
	if classes < minCharClasses {
		return ErrPasswordComplexity
	}
	return nil
}
