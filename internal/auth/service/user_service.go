package service

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/mouthful-app/mouthful/internal/auth/domain UserRepository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mouthful-app/mouthful/internal/auth/domain"
	"github.com/mouthful-app/mouthful/internal/auth/dto"
	autherror "github.com/mouthful-app/mouthful/internal/errors"
)

type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	existingUser, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and rotates the stored refresh token. Unknown
// email and wrong password deliberately collapse into the same error so the
// response shape never reveals whether the account exists.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, autherror.ErrInvalidCredentials
	}

	accessToken, _, err := s.tokenService.GenerateAccess(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := s.tokenService.GenerateRefresh()
	if err != nil {
		return nil, err
	}

	refreshExpiresAt := time.Now().Add(s.tokenService.GetRefreshTokenExpiry())
	if err := s.repo.UpdateRefreshToken(ctx, user.ID, refreshHash, refreshExpiresAt); err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		AccessToken:      accessToken,
		RawRefreshToken:  rawRefresh,
		RefreshExpiresAt: refreshExpiresAt.Unix(),
		User: dto.UserOutput{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated here; only login rotates it. An expired stored
// token is revoked before the call fails, so the session cannot be resumed by
// retrying.
func (s *UserService) Refresh(ctx context.Context, rawRefreshToken string) (string, error) {
	hash := s.tokenService.HashRefresh(rawRefreshToken)

	user, err := s.repo.GetByRefreshTokenHash(ctx, hash)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", autherror.ErrRefreshTokenNotFound
	}

	if user.RefreshTokenExpiresAt == nil || time.Now().After(*user.RefreshTokenExpiresAt) {
		if err := s.repo.ClearRefreshToken(ctx, user.ID); err != nil {
			return "", err
		}
		return "", autherror.ErrRefreshTokenExpired
	}

	accessToken, _, err := s.tokenService.GenerateAccess(user.ID, user.Email, user.Username)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// Logout revokes the stored refresh token matching the presented cookie.
// A missing or unknown token is not an error: logout is idempotent.
func (s *UserService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}

	hash := s.tokenService.HashRefresh(rawRefreshToken)

	user, err := s.repo.GetByRefreshTokenHash(ctx, hash)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	return s.repo.ClearRefreshToken(ctx, user.ID)
}
