package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stsapko/contacts-api/internal/logging"
	authmw "github.com/stsapko/contacts-api/internal/middleware/auth"
	"github.com/stsapko/contacts-api/internal/models"
	"github.com/stsapko/contacts-api/internal/repo"
)

// AvatarUploader is what the user handler needs from the avatar store.
type AvatarUploader interface {
	Upload(ctx context.Context, email string, r io.Reader, size int64, contentType string) (string, error)
}

type UserHandler struct {
	Users   *repo.UserRepo
	Avatars AvatarUploader
}

func currentUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(authmw.UserKey).(*models.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}
	return user, nil
}

func (h *UserHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_avatar")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		l.Warn("avatar_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		l.Warn("avatar_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read file")
	}
	defer src.Close()

	url, err := h.Avatars.Upload(ctx, user.Email, src, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		l.Error("avatar_failed", "status", 502, "reason", "upload failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "avatar upload failed")
	}

	updated, err := h.Users.SetAvatar(ctx, user.Email, url)
	if err != nil {
		l.Error("avatar_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("avatar_updated")
	return c.JSON(http.StatusOK, updated)
}
