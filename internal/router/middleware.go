package router

import (
	stderrors "errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"opticart/internal/auth"
	"opticart/internal/errors"
	"opticart/internal/handler"
	"opticart/internal/service"
)

const claimsKey = "claims"

// JWT accepts an access token from the Authorization header or the access_token
// cookie and stores its claims on the context. Refresh tokens are rejected.
func JWT(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + handler.AccessTokenCookie,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return errors.ErrInvalidToken
		},
	})
}

// LoadUser resolves the token's user and stores it as the current user.
func LoadUser(users service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return errors.ErrInvalidToken
			}
			user, err := users.GetUser(c.Request().Context(), claims.UserID)
			if err != nil {
				if stderrors.Is(err, errors.ErrUserNotFound) {
					return errors.ErrInvalidToken
				}
				return err
			}
			handler.SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the admin capability.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAdmin(handler.CurrentUser(c)) {
			return errors.ErrForbidden
		}
		return next(c)
	}
}
