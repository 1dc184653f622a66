package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// UserModel represents a registered user in the database.
type UserModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                   string     `bun:"id,pk,type:varchar(64)" json:"id"`
	Email                string     `bun:"email,notnull,unique" json:"email"`
	HashedPassword       string     `bun:"hashed_password,notnull" json:"-"`
	FullName             string     `bun:"full_name" json:"full_name,omitempty"`
	IsActive             bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	IsSuperuser          bool       `bun:"is_superuser,notnull,default:false" json:"is_superuser"`
	EmailVerified        bool       `bun:"email_verified,notnull,default:false" json:"email_verified"`
	VerificationToken    string     `bun:"verification_token" json:"-"`
	VerificationExpireAt *time.Time `bun:"verification_expire_at" json:"-"`
	DeletedAt            *time.Time `bun:"deleted_at,soft_delete" json:"-"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *UserModel) BeforeUpdate(ctx interface{}) error {
	u.UpdatedAt = time.Now()
	return nil
}

// ToUserDomain converts UserModel to the domain User.
func ToUserDomain(u *UserModel) *pkgmodels.User {
	if u == nil {
		return nil
	}
	return &pkgmodels.User{
		ID:                   pkgmodels.UserID(u.ID),
		Email:                u.Email,
		HashedPassword:       u.HashedPassword,
		FullName:             u.FullName,
		IsActive:             u.IsActive,
		IsSuperuser:          u.IsSuperuser,
		EmailVerified:        u.EmailVerified,
		VerificationToken:    u.VerificationToken,
		VerificationExpireAt: u.VerificationExpireAt,
		DeletedAt:            u.DeletedAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

// FromUserDomain converts a domain User to UserModel.
func FromUserDomain(u *pkgmodels.User) *UserModel {
	if u == nil {
		return nil
	}
	return &UserModel{
		ID:                   string(u.ID),
		Email:                u.Email,
		HashedPassword:       u.HashedPassword,
		FullName:             u.FullName,
		IsActive:             u.IsActive,
		IsSuperuser:          u.IsSuperuser,
		EmailVerified:        u.EmailVerified,
		VerificationToken:    u.VerificationToken,
		VerificationExpireAt: u.VerificationExpireAt,
		DeletedAt:            u.DeletedAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}
