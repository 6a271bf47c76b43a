package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/cache"
	"github.com/fathima-sithara/whisper-backend/internal/config"
	"github.com/fathima-sithara/whisper-backend/internal/models"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AuthTokens, *models.User, error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*models.AuthTokens, *models.User, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*models.AuthTokens, error)
}

type authService struct {
	users  repository.UserRepository
	store  *cache.Store
	jwt    *auth.JWTManager
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewAuthService(users repository.UserRepository, store *cache.Store, jwtMgr *auth.JWTManager, cfg *config.Config, logger *zap.SugaredLogger) AuthService {
	return &authService{users: users, store: store, jwt: jwtMgr, cfg: cfg, logger: logger}
}

func (s *authService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.ErrUserAlreadyExists
	} else if !errors.Is(err, apperr.ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashed),
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.AuthTokens, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, nil, apperr.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(ctx, user.ID.Hex())
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.TouchLastSeen(ctx, user.ID.Hex()); err != nil {
		s.logger.Warnw("failed to update last seen", "user", user.ID.Hex(), "err", err)
	}
	return tokens, user, nil
}

func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	code := auth.GenerateOTP(6)
	if err := s.store.StoreOTP(ctx, phone, code, s.cfg.OTPTTL, s.cfg.JWT.OTPRateLimitPerHour); err != nil {
		return err
	}
	// SMS delivery is out of scope; the code is logged for development use.
	s.logger.Infow("otp generated", "phone", phone, "code", code)
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, phone, code string) (*models.AuthTokens, *models.User, error) {
	if err := s.store.ConsumeOTP(ctx, phone, code); err != nil {
		return nil, nil, err
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, apperr.ErrUserNotFound) {
		user = &models.User{
			Phone:      phone,
			FullName:   "User-" + phone,
			IsVerified: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("create user: %w", err)
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	tokens, err := s.issueTokens(ctx, user.ID.Hex())
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *authService) Refresh(ctx context.Context, userID, refreshToken string) (*models.AuthTokens, error) {
	if err := s.store.CheckRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, err
	}
	if _, err := s.jwt.Validate(refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, userID)
}

func (s *authService) issueTokens(ctx context.Context, userID string) (*models.AuthTokens, error) {
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.store.StoreRefreshToken(ctx, userID, refresh, s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &models.AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}
