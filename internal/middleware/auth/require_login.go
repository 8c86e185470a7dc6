package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stsapko/contacts-api/internal/logging"
	"github.com/stsapko/contacts-api/internal/repo"
	"github.com/stsapko/contacts-api/internal/token"
)

// UserKey is the echo context key the authenticated user is stored under.
const UserKey = "user"

type Middleware struct {
	Tokens *token.Service
	Users  *repo.UserRepo
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):], nil
	}
	return "", errors.New("missing bearer token")
}

// RequireLogin authenticates the request with an access token and loads
// the account into the context. The 401 body is the same no matter which
// check failed.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "require_login")

		raw, err := BearerToken(c)
		if err != nil {
			return unauthorized(c)
		}

		email, err := m.Tokens.VerifyAccess(raw)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid access token")
			return unauthorized(c)
		}

		user, err := m.Users.FindByEmail(ctx, email)
		if err != nil {
			l.Error("auth_failed", "status", 500, "reason", "db_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if user == nil {
			l.Warn("auth_failed", "status", 401, "reason", "unknown subject")
			return unauthorized(c)
		}

		c.Set(UserKey, user)
		return next(c)
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
}
