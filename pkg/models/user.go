package models

import "time"

// User is a users-store account (spec §3). Password hashing, bcrypt cost,
// and JWT issuance are collaborators (spec §1 Non-goals) handled by
// internal/application/auth; this struct only models the persisted row.
type User struct {
	ID                   UserID     `json:"id"`
	Email                string     `json:"email"`
	HashedPassword       string     `json:"-"`
	FullName             string     `json:"full_name,omitempty"`
	IsActive             bool       `json:"is_active"`
	IsSuperuser          bool       `json:"is_superuser"`
	EmailVerified        bool       `json:"email_verified"`
	VerificationToken    string     `json:"-"`
	VerificationExpireAt *time.Time `json:"-"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Validate validates the user structure.
func (u *User) Validate() error {
	if u.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if u.HashedPassword == "" {
		return &ValidationError{Field: "hashed_password", Message: "password hash is required"}
	}
	return nil
}

// IsDeleted reports whether the account has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
