package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/application/service"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/sangkips/maglo-api/pkg/utils"
)

const (
	oauthStateCookie = "maglo_oauth_state"
	oauthStateMaxAge = int(10 * time.Minute / time.Second)
)

// GoogleRedirects are the frontend pages the Google callback lands on. When
// empty the callback answers with JSON instead of redirecting.
type GoogleRedirects struct {
	SuccessURL string
	ErrorURL   string
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	redirects   GoogleRedirects
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, redirects GoogleRedirects) *AuthHandler {
	return &AuthHandler{authService: authService, redirects: redirects}
}

func sessionPayload(output *service.LoginOutput) gin.H {
	return gin.H{
		"user":          output.User,
		"access_token":  output.AccessToken,
		"refresh_token": output.RefreshToken,
		"token_type":    "Bearer",
		"expires_at":    output.ExpiresAt,
	}
}

// Login handles user login
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", sessionPayload(output))
}

// Register creates an account and signs it in
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RegisterRequest true "Registration data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Register(c.Request.Context(), &service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Registration successful", sessionPayload(output))
}

// RefreshToken exchanges a refresh token for a new token pair
// @Summary Refresh Token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Token refreshed successfully", sessionPayload(output))
}

// Logout signs the current session out
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	// The body is optional
	var req request.LogoutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal, req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Logged out successfully", nil)
}

// GetProfile returns the current user
// @Summary Get Profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile retrieved successfully", gin.H{"user": user})
}

// UpdateProfile handles updating the user's display name
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var req request.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), principal, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile updated successfully", gin.H{"user": user})
}

// ChangePassword handles password change
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var req request.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), principal, &service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Password changed successfully", nil)
}

// GoogleAuth redirects the browser to the Google consent screen
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	state, err := utils.RandomState()
	if err != nil {
		response.Error(c, err)
		return
	}

	authURL, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback completes the Google sign-in
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	log := logger.WithComponent("auth")

	expected, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	if expected == "" || c.Query("state") != expected {
		h.googleFailed(c, "invalid_state", apperror.NewBadRequestError("Invalid OAuth state"))
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.googleFailed(c, reason, apperror.NewBadRequestError("Google sign-in was cancelled"))
		return
	}

	code := c.Query("code")
	if code == "" {
		h.googleFailed(c, "missing_code", apperror.NewBadRequestError("Authorization code is required"))
		return
	}

	output, err := h.authService.GoogleLogin(c.Request.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("google sign-in failed")
		h.googleFailed(c, "google_login_failed", err)
		return
	}

	if h.redirects.SuccessURL == "" {
		response.OK(c, "Login successful", sessionPayload(output))
		return
	}

	// Tokens go in the fragment, never the query string
	fragment := url.Values{}
	fragment.Set("access_token", output.AccessToken)
	fragment.Set("refresh_token", output.RefreshToken)
	fragment.Set("token_type", "Bearer")
	c.Redirect(http.StatusFound, h.redirects.SuccessURL+"#"+fragment.Encode())
}

func (h *AuthHandler) googleFailed(c *gin.Context, reason string, err error) {
	if h.redirects.ErrorURL == "" {
		response.Error(c, err)
		return
	}

	target, parseErr := url.Parse(h.redirects.ErrorURL)
	if parseErr != nil {
		response.Error(c, err)
		return
	}
	q := target.Query()
	q.Set("error", reason)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}
