package service

import (
	"context"
	"fmt"
	"strings"

	"calshare/core/cache"
	"calshare/core/constants"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/auth/dto"
	"calshare/modules/auth/entity"
	"calshare/modules/auth/repository"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenPairResponse, *errors.AppError)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPairResponse, *errors.AppError)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, *errors.AppError)
	Logout(ctx context.Context, token string) *errors.AppError
	GetMe(ctx context.Context, userID uuid.UUID) (*entity.User, *errors.AppError)
	SearchUsers(ctx context.Context, query string) ([]entity.User, *errors.AppError)
	ValidateAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError)
}

type AuthService struct {
	repo  repository.AuthRepositoryInterface
	cache cache.Cache
}

func NewAuthService(repo repository.AuthRepositoryInterface, cache cache.Cache) *AuthService {
	return &AuthService{repo: repo, cache: cache}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenPairResponse, *errors.AppError) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email and username are required", nil)
	}
	if len(req.Password) < 8 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "password must be at least 8 characters", nil)
	}

	for _, identifier := range []string{email, username} {
		existing, err := s.repo.GetUserByIdentifier(ctx, identifier)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check existing user", err)
		}
		if existing != nil {
			return nil, errors.NewAppError(errors.ErrAlreadyExists, "user already exists", nil)
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to hash password", err)
	}

	user := &entity.User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
		IsActive: true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "failed to create user", err)
	}

	return s.issueTokenPair(user)
}

// Login authenticates by email or username. Failed attempts are counted in
// redis and the account identifier locks out after too many.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPairResponse, *errors.AppError) {
	loginKey := fmt.Sprintf("login:%s", req.Identifier)

	blocked, err := s.cache.IsLoginBlocked(ctx, loginKey)
	if err != nil {
		logger.Error("AuthService:Login:IsLoginBlocked:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check login attempts", err)
	}
	if blocked {
		if errExpire := s.cache.Expire(ctx, loginKey, constants.BlockDuration); errExpire != nil {
			logger.Error("AuthService:Login:Expire:Error:", errExpire)
		}
		return nil, errors.NewAppError(errors.ErrUnauthorized, "too many failed attempts, try again later", nil)
	}

	user, err := s.repo.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid credentials", nil)
	}

	if !user.IsActive {
		s.countFailedAttempt(ctx, loginKey)
		return nil, errors.NewAppError(errors.ErrUnauthorized, "account is not active", nil)
	}

	if !utils.ComparePassword(user.Password, req.Password) {
		s.countFailedAttempt(ctx, loginKey)
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid credentials", nil)
	}

	if err := s.cache.Del(ctx, loginKey); err != nil {
		logger.Error("AuthService:Login:Del:Error:", err)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) countFailedAttempt(ctx context.Context, loginKey string) {
	if err := s.cache.IncrementLoginAttempt(ctx, loginKey); err != nil {
		logger.Error("AuthService:Login:IncrementLoginAttempt:Error:", err)
	}
}

// RefreshToken rotates the token pair. The used refresh token is blacklisted
// so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, *errors.AppError) {
	blacklisted, err := s.cache.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check token blacklist", err)
	}
	if blacklisted {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "token is blacklisted", nil)
	}

	claims, err := utils.ValidateAndParseToken(refreshToken)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTokenExpired, "invalid refresh token", err)
	}
	if claims.Scope != constants.ScopeTokenRefresh {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid token scope", nil)
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load user", err)
	}
	if user == nil || !user.IsActive {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "user not found or inactive", nil)
	}

	if err := s.cache.AddToTokenBlacklist(ctx, refreshToken); err != nil {
		logger.Error("AuthService:RefreshToken:AddToTokenBlacklist:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to blacklist token", err)
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) Logout(ctx context.Context, token string) *errors.AppError {
	if err := s.cache.AddToTokenBlacklist(ctx, token); err != nil {
		logger.Error("AuthService:Logout:AddToTokenBlacklist:Error:", err)
		return errors.NewAppError(errors.ErrInternalServer, "failed to blacklist token", err)
	}
	return nil
}

func (s *AuthService) GetMe(ctx context.Context, userID uuid.UUID) (*entity.User, *errors.AppError) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}
	return user, nil
}

func (s *AuthService) SearchUsers(ctx context.Context, query string) ([]entity.User, *errors.AppError) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "search query is required", nil)
	}

	users, err := s.repo.SearchUsers(ctx, query, 20)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to search users", err)
	}
	return users, nil
}

// ValidateAccessToken backs the auth middleware: signature, scope and
// blacklist are all checked.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError) {
	blacklisted, err := s.cache.IsTokenBlacklisted(ctx, token)
	if err != nil {
		logger.Error("AuthService:ValidateAccessToken:IsTokenBlacklisted:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check token blacklist", err)
	}
	if blacklisted {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "token is blacklisted", nil)
	}

	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTokenExpired, "invalid or expired token", err)
	}
	if claims.Scope != constants.ScopeTokenAccess {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid token scope", nil)
	}
	return claims, nil
}

func (s *AuthService) issueTokenPair(user *entity.User) (*dto.TokenPairResponse, *errors.AppError) {
	accessToken, err := utils.GenerateToken(user.ID, user.Email, user.Username, constants.ScopeTokenAccess)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate access token", err)
	}

	refreshToken, err := utils.GenerateToken(user.ID, user.Email, user.Username, constants.ScopeTokenRefresh)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate refresh token", err)
	}

	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
