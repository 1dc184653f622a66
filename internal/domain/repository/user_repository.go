package repository

import (
	"context"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// UserRepository persists User rows (spec §3, §4.6).
type UserRepository interface {
	Create(ctx context.Context, db bun.IDB, user *models.User) error
	GetByID(ctx context.Context, db bun.IDB, id models.UserID) (*models.User, error)
	GetByEmail(ctx context.Context, db bun.IDB, email string) (*models.User, error)
	Update(ctx context.Context, db bun.IDB, user *models.User) error

	// GetByVerificationToken looks up a user mid-signup by their pending
	// email verification token.
	GetByVerificationToken(ctx context.Context, db bun.IDB, token string) (*models.User, error)

	// RunInTx executes fn within a transaction, used by signup to serialise
	// against the global signup-bonus grant cap.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}
