package authmw

import (
	"context"
	"errors"
	"net/http"
	"slices"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	claimsKey = "claims"
	userIDKey = "user_id"
	roleKey   = "role"
)

type ctxKey struct{}

// Session requires a valid "Authorization: Bearer <jwt>" header and exposes
// the session claims on the echo context and the request context.
func Session(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return tokens.ParseSession(auth, secret)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsKey).(*tokens.SessionClaims)
			if !ok {
				return
			}
			c.Set(userIDKey, claims.UserID)
			c.Set(roleKey, claims.Role)
			ctx := context.WithValue(c.Request().Context(), ctxKey{}, claims)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			switch {
			case errors.Is(err, tokens.ErrExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, "token expired").SetInternal(err)
			case errors.Is(err, tokens.ErrInvalid):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token").SetInternal(err)
			}
		},
	})
}

func ClaimsFrom(c echo.Context) (*tokens.SessionClaims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.SessionClaims)
	return claims, ok && claims != nil
}

func ClaimsFromContext(ctx context.Context) (*tokens.SessionClaims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*tokens.SessionClaims)
	return claims, ok && claims != nil
}

// UserID returns 0 when the request carries no session.
func UserID(c echo.Context) uint {
	if id, ok := c.Get(userIDKey).(uint); ok {
		return id
	}
	return 0
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(roleKey).(string)
	return role == models.RoleAdmin
}

// RequireRole must run after Session.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return requireRole("insufficient permissions", roles...)
}

func RequireAdmin() echo.MiddlewareFunc {
	return requireRole("admin access required", models.RoleAdmin)
}

func requireRole(denied string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, denied)
			}
			return next(c)
		}
	}
}
