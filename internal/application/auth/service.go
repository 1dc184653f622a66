// Package auth implements account signup, email verification, and login for
// the users store, plus the signup-bonus grant issued against the evals
// store's credit_grants table (spec §4.2, SPEC_FULL §6).
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var (
	ErrEmailAlreadyTaken  = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidVerifyToken = errors.New("invalid or expired verification token")
)

// Service handles account signup/login. usersDB backs plain (non-transactional)
// reads of the users store; balanceRepo's evals-store transaction backs the
// signup bonus grant, a separate logical store with no cross-store FK (spec §9).
type Service struct {
	userRepo        repository.UserRepository
	usersDB         bun.IDB
	balanceRepo     repository.BalanceRepository
	jwtService      *JWTService
	passwordService *PasswordService
	billingCfg      config.BillingConfig
}

func NewService(userRepo repository.UserRepository, usersDB bun.IDB, balanceRepo repository.BalanceRepository, authCfg config.AuthConfig, billingCfg config.BillingConfig) *Service {
	return &Service{
		userRepo:        userRepo,
		usersDB:         usersDB,
		balanceRepo:     balanceRepo,
		jwtService:      NewJWTService(&authCfg),
		passwordService: NewPasswordService(authCfg.MinPasswordLength, authCfg.BcryptCost),
		billingCfg:      billingCfg,
	}
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email    string
	Password string
	FullName string
}

// AuthResult carries a signed access token for the caller.
type AuthResult struct {
	User        *pkgmodels.User `json:"user"`
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"`
	TokenType   string          `json:"token_type"`
}

// Signup creates an unverified account and returns its verification token.
// Mail dispatch is a collaborator out of core scope; the caller delivers it.
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*pkgmodels.User, string, error) {
	if err := s.passwordService.ValidatePassword(req.Password); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.GetByEmail(ctx, s.usersDB, req.Email)
	if err != nil && !errors.Is(err, pkgmodels.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailAlreadyTaken
	}

	hashed, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	token, err := generateToken()
	if err != nil {
		return nil, "", err
	}
	expiry := time.Now().Add(48 * time.Hour)

	user := &pkgmodels.User{
		ID:                   pkgmodels.UserID(uuid.New().String()),
		Email:                req.Email,
		HashedPassword:       hashed,
		FullName:             req.FullName,
		IsActive:             true,
		VerificationToken:    token,
		VerificationExpireAt: &expiry,
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}

	if err := s.userRepo.Create(ctx, s.usersDB, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}
	return user, token, nil
}

// VerifyEmail activates a pending signup and, if the process-wide signup
// bonus cap has not been reached, grants the configured bonus amount under
// a transaction-scoped count + insert (spec §4.2 "signup-bonus limit").
func (s *Service) VerifyEmail(ctx context.Context, token string) (*pkgmodels.User, error) {
	user, err := s.userRepo.GetByVerificationToken(ctx, s.usersDB, token)
	if err != nil {
		if errors.Is(err, pkgmodels.ErrUserNotFound) {
			return nil, ErrInvalidVerifyToken
		}
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}
	if user.VerificationExpireAt == nil || user.VerificationExpireAt.Before(time.Now()) {
		return nil, ErrInvalidVerifyToken
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpireAt = nil
	if err := s.userRepo.Update(ctx, s.usersDB, user); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}

	if s.billingCfg.SignupBonusAmount <= 0 {
		return user, nil
	}
	if err := s.issueSignupBonus(ctx, user.ID); err != nil {
		return user, fmt.Errorf("account activated but signup bonus failed: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a bearer access token.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, s.usersDB, email)
	if err != nil {
		if errors.Is(err, pkgmodels.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.IsDeleted() || !user.IsActive {
		return nil, ErrAccountInactive
	}
	if err := s.passwordService.VerifyPassword(password, user.HashedPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.jwtService.GenerateAccessToken(string(user.ID), user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   s.jwtService.AccessTokenExpirySeconds(),
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken parses and verifies a bearer access token.
func (s *Service) ValidateToken(token string) (*JWTClaims, error) {
	return s.jwtService.ValidateAccessToken(token)
}

func (s *Service) issueSignupBonus(ctx context.Context, userID pkgmodels.UserID) error {
	return s.balanceRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		count, err := s.balanceRepo.CountSignupBonusGrants(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to count signup bonus grants: %w", err)
		}
		if s.billingCfg.SignupBonusCapTotal > 0 && count >= s.billingCfg.SignupBonusCapTotal {
			return nil
		}

		expires := time.Now().Add(s.billingCfg.SignupBonusExpiry)
		grant := &pkgmodels.CreditGrant{
			UserID:          userID,
			Source:          pkgmodels.CreditSourceSignupBonus,
			OriginalAmount:  s.billingCfg.SignupBonusAmount,
			RemainingAmount: s.billingCfg.SignupBonusAmount,
			ExpiresAt:       &expires,
		}
		if err := s.balanceRepo.CreateGrant(ctx, tx, grant); err != nil {
			return fmt.Errorf("failed to create signup bonus grant: %w", err)
		}

		txn := &pkgmodels.BalanceTransaction{
			UserID:        userID,
			Type:          pkgmodels.BalanceTransactionCredit,
			Amount:        grant.OriginalAmount,
			BalanceAfter:  grant.OriginalAmount,
			Reason:        "signup_bonus",
			ReferenceType: "credit_grant",
			ReferenceID:   fmt.Sprintf("%d", grant.ID),
		}
		return s.balanceRepo.CreateTransaction(ctx, tx, txn)
	})
}

func generateToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
