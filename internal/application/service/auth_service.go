package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/sangkips/maglo-api/pkg/oauth"
	"github.com/sangkips/maglo-api/pkg/utils"
)

const minPasswordLength = 6

// GoogleAuthenticator resolves a Google authorization code to a verified profile
type GoogleAuthenticator interface {
	IsConfigured() bool
	GetAuthURL(state string) string
	Authenticate(ctx context.Context, code string) (*oauth.GoogleUserInfo, error)
}

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	sessions   repository.SessionStore
	jwtManager *utils.JWTManager
	google     GoogleAuthenticator
	log        zerolog.Logger
}

// NewAuthService creates a new auth service. google may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	sessions repository.SessionStore,
	jwtManager *utils.JWTManager,
	google GoogleAuthenticator,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		sessions:   sessions,
		jwtManager: jwtManager,
		google:     google,
		log:        logger.WithComponent("auth"),
	}
}

// LoginOutput represents an authenticated session
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s *AuthService) issue(user *entity.User) (*LoginOutput, error) {
	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// RegisterInput represents the registration input
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new account and signs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*LoginOutput, error) {
	name := strings.TrimSpace(input.Name)
	addr := normalizeEmail(input.Email)

	var errs fieldErrors
	if name == "" {
		errs.add("name", "is required")
	}
	if !isEmail(addr) {
		errs.add("email", "must be a valid email address")
	}
	if len(input.Password) < minPasswordLength {
		errs.add("password", "must be at least 6 characters")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return nil, storeError("load user", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:     name,
		Email:    addr,
		Password: hashed,
		Provider: entity.ProviderLocal,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeError("create user", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.issue(user)
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, storeError("load user", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, apperror.ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.Password, input.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate turns a bearer access token into a Principal
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, apperror.ErrTokenExpired
		}
		return Principal{}, apperror.ErrInvalidToken
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, apperror.NewRemoteServiceError("Session service unavailable", err)
	}
	if revoked {
		return Principal{}, apperror.ErrSessionRevoked
	}

	return Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, principal Principal) (*entity.User, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	return user, nil
}

// Logout revokes the caller's access token and, when given, the refresh token
// issued with it
func (s *AuthService) Logout(ctx context.Context, principal Principal, refreshToken string) error {
	if err := requireAuth(principal); err != nil {
		return err
	}

	if err := s.sessions.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return apperror.NewRemoteServiceError("Session service unavailable", err)
	}

	if refreshToken != "" {
		claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
		if err == nil && claims.UserID == principal.UserID {
			if err := s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
				return apperror.NewRemoteServiceError("Session service unavailable", err)
			}
		}
	}

	s.log.Info().Str("user_id", principal.UserID.String()).Msg("user signed out")
	return nil
}

// RefreshToken rotates a refresh token into a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.ErrInvalidToken
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.NewRemoteServiceError("Session service unavailable", err)
	}
	if revoked {
		return nil, apperror.ErrSessionRevoked
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}

	if err := s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return nil, apperror.NewRemoteServiceError("Session service unavailable", err)
	}

	return s.issue(user)
}

// GoogleAuthURL returns the consent URL for the Google sign-in flow
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return "", apperror.ErrOAuthNotConfigured
	}
	return s.google.GetAuthURL(state), nil
}

// GoogleLogin signs in with a Google authorization code, creating the account
// on first use and linking it to an existing account with the same email
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*LoginOutput, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return nil, apperror.ErrOAuthNotConfigured
	}

	info, err := s.google.Authenticate(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Msg("google sign-in rejected")
		return nil, apperror.NewAppError(apperror.ErrUnauthorized.Code, "Google sign-in failed")
	}

	user, err := s.userRepo.GetByProvider(ctx, entity.ProviderGoogle, info.ID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	if user != nil {
		return s.issue(user)
	}

	addr := normalizeEmail(info.Email)
	user, err = s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return nil, storeError("load user", err)
	}

	googleID := info.ID
	if user != nil {
		user.ProviderID = &googleID
		if !user.HasPassword() {
			user.Provider = entity.ProviderGoogle
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, storeError("link google account", err)
		}
		return s.issue(user)
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = addr
	}
	user = &entity.User{
		Name:       name,
		Email:      addr,
		Provider:   entity.ProviderGoogle,
		ProviderID: &googleID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeError("create user", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered with google")
	return s.issue(user)
}

// ChangePasswordInput represents the change password input
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// ChangePassword replaces the caller's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, principal Principal, input *ChangePasswordInput) error {
	user, err := s.Me(ctx, principal)
	if err != nil {
		return err
	}

	if user.HasPassword() && !utils.CheckPassword(user.Password, input.CurrentPassword) {
		return apperror.NewFieldError("current_password", "is incorrect")
	}
	if len(input.NewPassword) < minPasswordLength {
		return apperror.NewFieldError("new_password", "must be at least 6 characters")
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		return storeError("update password", err)
	}
	return nil
}

// UpdateProfile changes the caller's display name
func (s *AuthService) UpdateProfile(ctx context.Context, principal Principal, name string) (*entity.User, error) {
	user, err := s.Me(ctx, principal)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewFieldError("name", "is required")
	}
	user.Name = name

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeError("update profile", err)
	}
	return user, nil
}
