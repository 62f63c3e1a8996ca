package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"opticart/internal/auth"
	"opticart/internal/model"
	"opticart/internal/service"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

// AuthHandler handles the OTP-gated authentication endpoints.
type AuthHandler struct {
	authService  service.AuthService
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. cookieTTL is the access token lifetime.
func NewAuthHandler(authService service.AuthService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieTTL: cookieTTL, secureCookie: secureCookie}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=200"`
	Username  string `json:"username" validate:"required,max=50"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

// VerifyOTPRequest submits the code received by email.
type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otp_code" validate:"required,len=6,numeric"`
}

// ResendOTPRequest asks for a fresh registration code.
type ResendOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required" example:"registration"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ConfirmResetRequest sets a new password with the reset code.
type ConfirmResetRequest struct {
	OTPCode     string `json:"otp_code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required"`
}

// RegisterResponse is returned once the account exists and a code was sent.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates the account and emails a registration code. No tokens are issued yet.
// @Tags user
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Envelope{data=RegisterResponse}
// @Failure 400 {object} ErrorEnvelope
// @Failure 500 {object} ErrorEnvelope
// @Router /user/register/ [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, RegisterResponse{
		Message: "user registered, check your email for the verification code",
		User:    user,
	})
}

// VerifyRegistration godoc
// @Summary Verify the registration code
// @Tags user
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Email and code"
// @Success 200 {object} Envelope{data=auth.TokenPair}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/verify-otp/ [post]
func (h *AuthHandler) VerifyRegistration(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pair, err := h.authService.VerifyRegistration(c.Request().Context(), req.Email, req.OTPCode)
	if err != nil {
		return err
	}
	return h.respondTokens(c, pair)
}

// ResendOTP godoc
// @Summary Send a fresh registration code
// @Description Only the registration purpose is accepted; a new login code requires logging in again.
// @Tags user
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "Email and purpose"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/resend-otp/ [post]
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req ResendOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResendOTP(c.Request().Context(), req.Email, model.OTPPurpose(req.Purpose)); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "a new code has been sent")
}

// Login godoc
// @Summary Check credentials and email a login code
// @Tags user
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} ErrorEnvelope
// @Failure 401 {object} ErrorEnvelope
// @Router /user/login/ [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "a login code has been sent to your email")
}

// VerifyLogin godoc
// @Summary Verify the login code
// @Tags user
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Email and code"
// @Success 200 {object} Envelope{data=auth.TokenPair}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /user/verify-login-otp/ [post]
func (h *AuthHandler) VerifyLogin(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pair, err := h.authService.VerifyLogin(c.Request().Context(), req.Email, req.OTPCode)
	if err != nil {
		return err
	}
	return h.respondTokens(c, pair)
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description The submitted refresh token is revoked and a new pair returned.
// @Tags user
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} Envelope{data=auth.TokenPair}
// @Failure 400 {object} ErrorEnvelope
// @Failure 401 {object} ErrorEnvelope
// @Router /user/token/refresh/ [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pair, err := h.authService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return h.respondTokens(c, pair)
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} ErrorEnvelope
// @Failure 401 {object} ErrorEnvelope
// @Router /user/logout/ [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), req.Refresh); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return respondMessage(c, http.StatusOK, "logged out successfully")
}

// RequestPasswordReset godoc
// @Summary Email a password reset code to the current user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 401 {object} ErrorEnvelope
// @Router /user/reset-password/ [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), user); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "a password reset code has been sent to your email")
}

// ConfirmPasswordReset godoc
// @Summary Set a new password with the reset code
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConfirmResetRequest true "Code and new password"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 400 {object} ErrorEnvelope
// @Failure 401 {object} ErrorEnvelope
// @Router /user/verify-reset-password/ [post]
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ConfirmResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.ConfirmPasswordReset(c.Request().Context(), user, req.OTPCode, req.NewPassword); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "password has been reset")
}

func (h *AuthHandler) respondTokens(c echo.Context, pair *auth.TokenPair) error {
	c.SetCookie(&http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.Access,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return respond(c, http.StatusOK, pair)
}
