package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooWeak  = errors.New("password is too weak")
	ErrPasswordMismatch = errors.New("password does not match")
)

// PasswordError represents a password validation error.
type PasswordError struct {
	Message string
}

func (e *PasswordError) Error() string {
	return e.Message
}

// PasswordService hashes and validates user-store passwords with bcrypt.
type PasswordService struct {
	minLength  int
	bcryptCost int
}

func NewPasswordService(minLength, bcryptCost int) *PasswordService {
	if minLength < 6 {
		minLength = 6
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordService{minLength: minLength, bcryptCost: bcryptCost}
}

func (s *PasswordService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *PasswordService) VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidatePassword enforces the users-store password policy: minimum length
// plus at least one upper, one lower, and one digit.
func (s *PasswordService) ValidatePassword(password string) error {
	if len(password) < s.minLength {
		return &PasswordError{Message: fmt.Sprintf("password must be at least %d characters", s.minLength)}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return &PasswordError{Message: "password must contain an uppercase letter, a lowercase letter, and a digit"}
	}
	return nil
}
