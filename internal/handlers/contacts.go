package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stsapko/contacts-api/internal/logging"
	"github.com/stsapko/contacts-api/internal/models"
	"github.com/stsapko/contacts-api/internal/repo"
)

type ContactHandler struct {
	Contacts *repo.ContactRepo
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func paging(c echo.Context) (limit, offset int) {
	limit = parseIntDefault(c.QueryParam("limit"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset = parseIntDefault(c.QueryParam("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func contactID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *ContactHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)

	contacts, err := h.Contacts.List(ctx, user.ID, limit, offset)
	if err != nil {
		logging.FromContext(ctx).Error("contacts_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, newContactResponses(contacts))
}

func (h *ContactHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}

	contact, err := h.Contacts.Get(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
		}
		logging.FromContext(ctx).Error("contacts_get_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, newContactResponse(contact))
}

func (h *ContactHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contacts_create")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req ContactCreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("create_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	bday, err := time.ParseInLocation(dateLayout, req.BDay, time.UTC)
	if err != nil {
		l.Warn("create_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "b_day: must be a valid date")
	}

	contact := models.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		BDay:      bday,
		Note:      req.Note,
		UserID:    user.ID,
	}
	if err := h.Contacts.Create(ctx, &contact); err != nil {
		l.Error("create_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("create_success", "contact_id", contact.ID)
	return c.JSON(http.StatusCreated, newContactResponse(&contact))
}

func (h *ContactHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contacts_update")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}

	var req ContactUpdateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("update_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	upd := repo.ContactUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Note:      req.Note,
	}
	if req.BDay != nil {
		bday, err := time.ParseInLocation(dateLayout, *req.BDay, time.UTC)
		if err != nil {
			l.Warn("update_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "b_day: must be a valid date")
		}
		upd.BDay = &bday
	}

	contact, err := h.Contacts.Update(ctx, user.ID, id, upd)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
		}
		l.Error("update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("update_success", "contact_id", contact.ID)
	return c.JSON(http.StatusOK, newContactResponse(contact))
}

func (h *ContactHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contacts_delete")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}

	contact, err := h.Contacts.Delete(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
		}
		l.Error("delete_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_success", "contact_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Contact '%s %s' successfully deleted", contact.FirstName, contact.LastName),
	})
}

func (h *ContactHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)

	contacts, err := h.Contacts.Search(ctx, user.ID, c.QueryParam("q"), limit, offset)
	if err != nil {
		logging.FromContext(ctx).Error("contacts_search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, newContactResponses(contacts))
}

func (h *ContactHandler) Birthdays(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	contacts, err := h.Contacts.UpcomingBirthdays(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("contacts_birthdays_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, newContactResponses(contacts))
}
