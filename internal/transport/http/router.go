package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/stsapko/contacts-api/internal/handlers"
	authmw "github.com/stsapko/contacts-api/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ContactHandler *handlers.ContactHandler
	AuthMW         *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/refresh", d.AuthHandler.Refresh)
	auth.GET("/confirm_email/:token", d.AuthHandler.ConfirmEmail)
	auth.POST("/request_reset", d.AuthHandler.RequestReset)
	auth.POST("/reset_password/:token", d.AuthHandler.ResetPassword)

	users := v1.Group("/users", d.AuthMW.RequireLogin)
	users.GET("/me", d.UserHandler.Me)
	users.PATCH("/avatar", d.UserHandler.UpdateAvatar)

	contacts := v1.Group("/contacts", d.AuthMW.RequireLogin)
	contacts.GET("", d.ContactHandler.List)
	contacts.POST("", d.ContactHandler.Create)
	contacts.GET("/search", d.ContactHandler.Search)
	contacts.GET("/birthdays", d.ContactHandler.Birthdays)
	contacts.GET("/:id", d.ContactHandler.Get)
	contacts.PATCH("/:id", d.ContactHandler.Update)
	contacts.DELETE("/:id", d.ContactHandler.Delete)
}
