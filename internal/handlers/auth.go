package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stsapko/contacts-api/internal/avatar"
	"github.com/stsapko/contacts-api/internal/hash"
	"github.com/stsapko/contacts-api/internal/logging"
	authmw "github.com/stsapko/contacts-api/internal/middleware/auth"
	"github.com/stsapko/contacts-api/internal/models"
	"github.com/stsapko/contacts-api/internal/notify"
	"github.com/stsapko/contacts-api/internal/repo"
	"github.com/stsapko/contacts-api/internal/token"
)

type AuthHandler struct {
	Users    *repo.UserRepo
	Tokens   *token.Service
	Producer *notify.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("signup_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	// fast path only; the unique constraint is the real guard
	existing, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if existing != nil {
		l.Warn("signup_failed", "status", 409, "reason", "account_exists")
		return echo.NewHTTPError(http.StatusConflict, "account already exists")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refreshToken, err := h.Tokens.IssueRefresh(req.Email)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	avatarURL := avatar.GravatarURL(req.Email)
	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
		Avatar:       &avatarURL,
		RefreshToken: &refreshToken,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserExists) {
			l.Warn("signup_failed", "status", 409, "reason", "account_exists")
			return echo.NewHTTPError(http.StatusConflict, "account already exists")
		}
		l.Error("signup_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if emailToken, err := h.Tokens.IssueEmail(user.Email); err != nil {
		l.Error("signup_warning", "reason", "cannot create email token", "error", err)
	} else {
		h.publish(c, user.Email, map[string]interface{}{
			"type":  "email_confirmation_requested",
			"email": user.Email,
			"token": emailToken,
		})
	}

	l.Info("signup_success", "status", 201)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("login_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil || !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	pair, err := h.issuePair(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_success")
	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a new pair. Only the most
// recently stored refresh token is accepted; presenting a stale one
// clears the stored token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw, err := authmw.BearerToken(c)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "missing bearer token")
		return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}

	email, err := h.Tokens.VerifyRefresh(raw)
	if err != nil {
		if errors.Is(err, token.ErrInvalidScope) {
			l.Warn("refresh_failed", "status", 401, "reason", "invalid token scope")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token scope")
		}
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		l.Warn("refresh_failed", "status", 401, "reason", "unknown subject")
		return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}
	if user.RefreshToken == nil || *user.RefreshToken != raw {
		if err := h.Users.ClearRefreshToken(ctx, user); err != nil {
			l.Error("refresh_error", "reason", "cannot clear refresh token", "error", err)
		}
		l.Warn("refresh_failed", "status", 401, "reason", "stale refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}

	pair, err := h.issuePair(ctx, user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) issuePair(ctx context.Context, user *models.User) (*TokenPairResponse, error) {
	access, err := h.Tokens.IssueAccess(user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := h.Tokens.IssueRefresh(user.Email)
	if err != nil {
		return nil, err
	}
	if err := h.Users.SetRefreshToken(ctx, user, refresh); err != nil {
		return nil, err
	}
	return &TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_confirm_email")

	// a decode failure and a wrong scope get the same answer
	email, err := h.Tokens.VerifyEmail(c.Param("token"))
	if err != nil {
		l.Warn("confirm_failed", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid token for email confirmation")
	}

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("confirm_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		l.Warn("confirm_failed", "status", 400, "reason", "unknown subject")
		return echo.NewHTTPError(http.StatusBadRequest, "verification error")
	}
	if user.IsActivated {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}

	if err := h.Users.Activate(ctx, email); err != nil {
		l.Error("confirm_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("confirm_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

func (h *AuthHandler) RequestReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_request_reset")

	var req RequestResetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_request_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("reset_request_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		l.Error("reset_request_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		l.Warn("reset_request_failed", "status", 404, "reason", "unknown email")
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	resetToken, err := h.Tokens.IssueReset(user.Email)
	if err != nil {
		l.Error("reset_request_error", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := h.Users.SetResetToken(ctx, user, resetToken); err != nil {
		l.Error("reset_request_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, user.Email, map[string]interface{}{
		"type":  "password_reset_requested",
		"email": user.Email,
		"token": resetToken,
	})

	l.Info("reset_request_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "check your email for the reset link"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_password")

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("reset_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	raw := c.Param("token")
	email, err := h.Tokens.VerifyReset(raw)
	if err != nil {
		l.Warn("reset_failed", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid token for password reset")
	}

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("reset_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		l.Warn("reset_failed", "status", 400, "reason", "unknown subject")
		return echo.NewHTTPError(http.StatusBadRequest, "verification error")
	}
	if user.ResetToken == nil || *user.ResetToken != raw {
		l.Warn("reset_failed", "status", 422, "reason", "stale reset token")
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid token for password reset")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("reset_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := h.Users.SetPassword(ctx, email, pwHash); err != nil {
		l.Error("reset_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("reset_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
