package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository implements repository.UserRepository using Bun ORM.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, db bun.IDB, user *pkgmodels.User) error {
	userModel := models.FromUserDomain(user)

	_, err := db.NewInsert().Model(userModel).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = pkgmodels.UserID(userModel.ID)
	user.CreatedAt = userModel.CreatedAt
	user.UpdatedAt = userModel.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.UserID) (*pkgmodels.User, error) {
	userModel := new(models.UserModel)
	err := db.NewSelect().
		Model(userModel).
		Where("id = ?", string(id)).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrUserNotFound
		}
		return nil, err
	}
	return models.ToUserDomain(userModel), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, db bun.IDB, email string) (*pkgmodels.User, error) {
	userModel := new(models.UserModel)
	err := db.NewSelect().
		Model(userModel).
		Where("LOWER(email) = LOWER(?)", email).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrUserNotFound
		}
		return nil, err
	}
	return models.ToUserDomain(userModel), nil
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, db bun.IDB, token string) (*pkgmodels.User, error) {
	userModel := new(models.UserModel)
	err := db.NewSelect().
		Model(userModel).
		Where("verification_token = ?", token).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrUserNotFound
		}
		return nil, err
	}
	return models.ToUserDomain(userModel), nil
}

func (r *UserRepository) Update(ctx context.Context, db bun.IDB, user *pkgmodels.User) error {
	userModel := models.FromUserDomain(user)

	_, err := db.NewUpdate().
		Model(userModel).
		Column("email", "hashed_password", "full_name", "is_active", "is_superuser",
			"email_verified", "verification_token", "verification_expire_at", "updated_at").
		Where("id = ?", userModel.ID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, fn)
}
